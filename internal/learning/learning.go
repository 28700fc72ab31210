// Package learning appends the learning log described by the orchestration
// contract: pattern_detected, improvement_proposed, improvement_applied, and
// anomaly_detected events, one JSON record per line.
package learning

import (
	"time"

	"github.com/daydemir/ralph/internal/detect"
	"github.com/daydemir/ralph/internal/improve"
	"github.com/daydemir/ralph/internal/jsonl"
)

// EventType names one of the four learning-log event kinds.
type EventType string

const (
	EventPatternDetected      EventType = "pattern_detected"
	EventImprovementProposed  EventType = "improvement_proposed"
	EventImprovementApplied   EventType = "improvement_applied"
	EventAnomalyDetected      EventType = "anomaly_detected"
)

// anomalyTypes are the detector outputs whose nature is a statistical
// outlier rather than a steady-state pattern; these also get an
// anomaly_detected record alongside their pattern_detected one.
var anomalyTypes = map[detect.PatternType]bool{
	detect.PatternIterationAnomaly: true,
	detect.PatternEstimationDrift:  true,
}

// Event is one learning-log record. Fields are flat and mostly optional;
// which are populated depends on Type.
type Event struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	PatternType string    `json:"patternType,omitempty"`
	Confidence  float64   `json:"confidence,omitempty"`
	Description string    `json:"description,omitempty"`
	ProposalID  string    `json:"proposalId,omitempty"`
	Target      string    `json:"target,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Log wraps the learning.jsonl append/read-all log.
type Log struct {
	log *jsonl.Log[Event]
}

// Open opens (without reading) the learning log at path.
func Open(path string) *Log {
	return &Log{log: jsonl.Open[Event](path)}
}

// Append appends a single event.
func (l *Log) Append(e Event) error {
	return l.log.Append(e)
}

// ReadAll reads every event in the log, skipping blank/malformed lines.
func (l *Log) ReadAll() ([]Event, error) {
	return l.log.ReadAll()
}

// RecordPatterns appends a pattern_detected event for every detected
// pattern, plus an anomaly_detected event for the statistically
// outlier-shaped detector types.
func (l *Log) RecordPatterns(patterns []detect.DetectedPattern) error {
	for _, p := range patterns {
		if err := l.Append(Event{
			Type:        EventPatternDetected,
			Timestamp:   p.Timestamp,
			PatternType: string(p.Type),
			Confidence:  p.Confidence,
			Description: p.Description,
		}); err != nil {
			return err
		}
		if anomalyTypes[p.Type] {
			if err := l.Append(Event{
				Type:        EventAnomalyDetected,
				Timestamp:   p.Timestamp,
				PatternType: string(p.Type),
				Confidence:  p.Confidence,
				Description: p.Description,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordProposals appends an improvement_proposed event per proposal.
func (l *Log) RecordProposals(proposals []*improve.Proposal) error {
	for _, p := range proposals {
		if err := l.Append(Event{
			Type:        EventImprovementProposed,
			Timestamp:   p.CreatedAt,
			ProposalID:  p.ID,
			Target:      p.Target,
			Description: p.Title,
		}); err != nil {
			return err
		}
	}
	return nil
}

// RecordApplied appends the improvement_applied events produced by
// internal/improve.Apply.
func (l *Log) RecordApplied(events []improve.Event, now time.Time) error {
	for _, e := range events {
		if err := l.Append(Event{
			Type:       EventImprovementApplied,
			Timestamp:  now,
			ProposalID: e.ProposalID,
			Target:     e.Target,
			Error:      e.Error,
		}); err != nil {
			return err
		}
	}
	return nil
}
