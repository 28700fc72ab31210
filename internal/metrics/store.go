package metrics

import (
	"fmt"

	"github.com/daydemir/ralph/internal/iteration"
	"github.com/daydemir/ralph/internal/jsonl"
	"github.com/daydemir/ralph/internal/task"
)

// Store is the JSONL-backed home for per-task metrics and the progress log
// they're partly derived from. Both files are append-only and are the sole
// source of truth; nothing here requires a database to operate.
type Store struct {
	metrics  *jsonl.Log[TaskMetric]
	progress *jsonl.Log[iteration.Record]
}

// NewStore opens (without creating) the metrics and progress logs at the
// given paths.
func NewStore(metricsPath, progressPath string) *Store {
	return &Store{
		metrics:  jsonl.Open[TaskMetric](metricsPath),
		progress: jsonl.Open[iteration.Record](progressPath),
	}
}

// RecordTask appends a TaskMetric computed from a completed task and its
// iteration history.
func (s *Store) RecordTask(t *task.Task, filesChanged, linesChanged, blockers int) error {
	records, err := s.ProgressFor(t.ID)
	if err != nil {
		return fmt.Errorf("read progress for %s: %w", t.ID, err)
	}
	metric := ForTask(t, len(records), filesChanged, linesChanged, blockers)
	return s.metrics.Append(metric)
}

// AppendProgress appends one iteration record to the progress log.
func (s *Store) AppendProgress(r iteration.Record) error {
	return s.progress.Append(r)
}

// ProgressFor returns every progress record for one task, in iteration
// order.
func (s *Store) ProgressFor(taskID string) ([]iteration.Record, error) {
	all, err := s.progress.ReadAll()
	if err != nil {
		return nil, err
	}
	var out []iteration.Record
	for _, r := range all {
		if r.TaskID == taskID {
			out = append(out, r)
		}
	}
	return out, nil
}

// AllMetrics returns every recorded TaskMetric.
func (s *Store) AllMetrics() ([]TaskMetric, error) {
	return s.metrics.ReadAll()
}

// CurrentAggregate computes the Aggregate for the current period from the
// live task map and the recorded metrics.
func (s *Store) CurrentAggregate(period string, tasks map[string]*task.Task, commits int) (Aggregate, error) {
	records, err := s.AllMetrics()
	if err != nil {
		return Aggregate{}, err
	}
	return ComputeAggregate(period, tasks, records, commits), nil
}
