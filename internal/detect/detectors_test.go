package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daydemir/ralph/internal/metrics"
	"github.com/daydemir/ralph/internal/task"
)

func TestDetectEstimationDrift_FlagsSystematicUnderestimate(t *testing.T) {
	var records []metrics.TaskMetric
	for i := 0; i < 6; i++ {
		records = append(records, metrics.TaskMetric{TaskID: "T", Estimate: 1, Actual: 2})
	}
	ctx := DetectionContext{Metrics: records}
	p := DetectEstimationDrift(ctx)
	require.NotNil(t, p)
	assert.Equal(t, PatternEstimationDrift, p.Type)
	assert.InDelta(t, 0.54, p.Confidence, 0.01)
}

func TestDetectEstimationDrift_BelowMinSamplesReturnsNil(t *testing.T) {
	ctx := DetectionContext{Metrics: []metrics.TaskMetric{{Estimate: 1, Actual: 5}}}
	assert.Nil(t, DetectEstimationDrift(ctx))
}

func TestDetectEstimationDrift_WithinToleranceReturnsNil(t *testing.T) {
	var records []metrics.TaskMetric
	for i := 0; i < 6; i++ {
		records = append(records, metrics.TaskMetric{Estimate: 1, Actual: 1})
	}
	assert.Nil(t, DetectEstimationDrift(DetectionContext{Metrics: records}))
}

func TestDetectTaskClustering_FlagsLargestAggregate(t *testing.T) {
	tasks := map[string]*task.Task{
		"1": {ID: "1", Aggregate: "billing"},
		"2": {ID: "2", Aggregate: "billing"},
		"3": {ID: "3", Aggregate: "billing"},
		"4": {ID: "4", Aggregate: "auth"},
	}
	p := DetectTaskClustering(DetectionContext{Tasks: tasks})
	require.NotNil(t, p)
	assert.Equal(t, "billing", p.Data["aggregate"])
}

func TestDetectBlockingChain_RequiresAtLeastTwoHeavyBlockers(t *testing.T) {
	tasks := map[string]*task.Task{
		"1": {ID: "1", Blocks: []string{"2", "3"}},
		"2": {ID: "2", Blocks: []string{"4", "5"}},
		"3": {ID: "3"},
	}
	p := DetectBlockingChain(DetectionContext{Tasks: tasks})
	require.NotNil(t, p)
	assert.ElementsMatch(t, []string{"1", "2"}, p.Evidence)
}

func TestDetectIterationAnomaly_FlagsOutliers(t *testing.T) {
	var records []metrics.TaskMetric
	for i := 0; i < 9; i++ {
		records = append(records, metrics.TaskMetric{TaskID: "normal", Iterations: 2})
	}
	records = append(records, metrics.TaskMetric{TaskID: "outlier", Iterations: 50})
	p := DetectIterationAnomaly(DetectionContext{Metrics: records})
	require.NotNil(t, p)
	assert.Contains(t, p.Evidence, "outlier")
}

func TestRun_DropsBelowMinConfidence(t *testing.T) {
	tasks := map[string]*task.Task{
		"1": {ID: "1", Blocks: []string{"2", "3"}},
		"2": {ID: "2", Blocks: []string{"4", "5"}},
	}
	found := Run(DetectionContext{Tasks: tasks, MinConfidence: 0.9}, time.Now())
	for _, p := range found {
		assert.GreaterOrEqual(t, p.Confidence, 0.9)
	}
}

func TestSummarize_TalliesAndOrdersBySuggestionConfidence(t *testing.T) {
	patterns := []DetectedPattern{
		{Type: PatternBugHotspot, Confidence: 0.9, Suggestion: "a"},
		{Type: PatternTestGap, Confidence: 0.5, Suggestion: "b"},
	}
	s := Summarize(patterns)
	assert.Equal(t, 2, s.TotalPatterns)
	assert.Equal(t, 1, s.HighConfidence)
	assert.Equal(t, []string{"a", "b"}, s.TopSuggestions)
}
