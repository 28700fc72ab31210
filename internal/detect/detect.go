// Package detect runs a fixed battery of independent detectors over the
// accumulated task graph and metrics history, each looking for one kind of
// recurring shape — drifting estimates, clustering work, chains of blockers,
// and so on — and emitting at most one finding.
package detect

import (
	"sort"
	"time"

	"github.com/daydemir/ralph/internal/metrics"
	"github.com/daydemir/ralph/internal/task"
)

// PatternType names one detector's finding kind.
type PatternType string

const (
	PatternEstimationDrift  PatternType = "estimation_drift"
	PatternTaskClustering   PatternType = "task_clustering"
	PatternBlockingChain    PatternType = "blocking_chain"
	PatternBugHotspot       PatternType = "bug_hotspot"
	PatternIterationAnomaly PatternType = "iteration_anomaly"
	PatternVelocityTrend    PatternType = "velocity_trend"
	PatternBottleneck       PatternType = "bottleneck"
	PatternComplexitySignal PatternType = "complexity_signal"
	PatternTestGap          PatternType = "test_gap"
	PatternHighChurn        PatternType = "high_churn"
	PatternCoupling         PatternType = "coupling"
)

// DefaultMinConfidence and DefaultMinSamples are the detectors' default
// thresholds when a DetectionContext doesn't override them.
const (
	DefaultMinConfidence = 0.6
	DefaultMinSamples    = 5
)

// DetectionContext is the shared input to every detector.
type DetectionContext struct {
	Tasks         map[string]*task.Task
	Metrics       []metrics.TaskMetric
	Aggregates    []metrics.Aggregate
	MinConfidence float64
	MinSamples    int
}

// minSamples returns the effective threshold, applying the default when
// unset.
func (c DetectionContext) minSamples() int {
	if c.MinSamples > 0 {
		return c.MinSamples
	}
	return DefaultMinSamples
}

func (c DetectionContext) minConfidence() float64 {
	if c.MinConfidence > 0 {
		return c.MinConfidence
	}
	return DefaultMinConfidence
}

// DetectedPattern is one detector's finding.
type DetectedPattern struct {
	Type        PatternType    `json:"type"`
	Confidence  float64        `json:"confidence"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
	Evidence    []string       `json:"evidence,omitempty"`
	Suggestion  string         `json:"suggestion"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Detector inspects ctx and returns a finding, or nil if nothing triggers or
// the sample size is too small.
type Detector func(ctx DetectionContext) *DetectedPattern

// Detectors lists every detector in the fixed order findings are evaluated.
var Detectors = []Detector{
	DetectEstimationDrift,
	DetectTaskClustering,
	DetectBlockingChain,
	DetectBugHotspot,
	DetectIterationAnomaly,
	DetectVelocityTrend,
	DetectBottleneck,
	DetectComplexitySignal,
	DetectTestGap,
	DetectHighChurn,
	DetectCoupling,
}

// Run applies every detector in fixed order, dropping findings below
// ctx.MinConfidence (after defaulting).
func Run(ctx DetectionContext, now time.Time) []DetectedPattern {
	minConf := ctx.minConfidence()
	var found []DetectedPattern
	for _, d := range Detectors {
		p := d(ctx)
		if p == nil {
			continue
		}
		if p.Confidence < minConf {
			continue
		}
		p.Timestamp = now
		found = append(found, *p)
	}
	return found
}

// Summary tallies a batch of findings for display.
type Summary struct {
	TotalPatterns  int            `json:"totalPatterns"`
	HighConfidence int            `json:"highConfidence"`
	ByType         map[string]int `json:"byType"`
	TopSuggestions []string       `json:"topSuggestions"`
}

// Summarize computes the {totalPatterns, highConfidence, byType,
// topSuggestions} tally over a batch of findings.
func Summarize(patterns []DetectedPattern) Summary {
	s := Summary{ByType: map[string]int{}}
	sorted := append([]DetectedPattern(nil), patterns...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Confidence > sorted[j].Confidence })

	for _, p := range sorted {
		s.TotalPatterns++
		if p.Confidence >= 0.8 {
			s.HighConfidence++
		}
		s.ByType[string(p.Type)]++
	}
	for _, p := range sorted {
		if len(s.TopSuggestions) >= 5 {
			break
		}
		if p.Suggestion != "" {
			s.TopSuggestions = append(s.TopSuggestions, p.Suggestion)
		}
	}
	return s
}

func minF(n, cap float64) float64 {
	if n < cap {
		return n
	}
	return cap
}

func evidenceIDs(records []metrics.TaskMetric, filter func(metrics.TaskMetric) bool) []string {
	var ids []string
	for _, m := range records {
		if filter(m) {
			ids = append(ids, m.TaskID)
		}
	}
	return ids
}
