// Package metrics computes and records per-task and aggregate summaries
// from the task graph and the progress log.
package metrics

import (
	"time"

	"github.com/daydemir/ralph/internal/task"
)

// TaskMetric is the per-task record appended when a task completes.
type TaskMetric struct {
	TaskID       string          `json:"taskId"`
	Type         task.Type       `json:"type"`
	Aggregate    string          `json:"aggregate,omitempty"`
	Domain       string          `json:"domain,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	Complexity   task.Complexity `json:"complexity,omitempty"`
	Estimate     float64         `json:"estimate,omitempty"`
	Actual       float64         `json:"actual,omitempty"`
	Iterations   int             `json:"iterations"`
	DurationDays float64         `json:"durationDays"`
	FilesChanged int             `json:"filesChanged"`
	LinesChanged int             `json:"linesChanged"`
	Blockers     int             `json:"blockers"`
	CompletedAt  time.Time       `json:"completedAt"`
}

// ForTask computes a TaskMetric from a completed task and its observed
// execution facts. filesChanged/linesChanged come from the working tree's
// git diff stats and blockers from the task's blockedBy count.
func ForTask(t *task.Task, iterations, filesChanged, linesChanged, blockers int) TaskMetric {
	var completedAt time.Time
	if t.CompletedAt != nil {
		completedAt = *t.CompletedAt
	}
	durationDays := completedAt.Sub(t.CreatedAt).Hours() / 24
	if durationDays < 0 {
		durationDays = 0
	}
	return TaskMetric{
		TaskID:       t.ID,
		Type:         t.Type,
		Aggregate:    t.Aggregate,
		Domain:       t.Domain,
		Tags:         t.Tags,
		Complexity:   t.Complexity,
		Estimate:     t.Estimate,
		Actual:       t.Actual,
		Iterations:   iterations,
		DurationDays: durationDays,
		FilesChanged: filesChanged,
		LinesChanged: linesChanged,
		Blockers:     blockers,
		CompletedAt:  completedAt,
	}
}
