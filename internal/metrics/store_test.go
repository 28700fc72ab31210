package metrics

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daydemir/ralph/internal/iteration"
	"github.com/daydemir/ralph/internal/task"
)

func TestStore_RecordTaskUsesProgressIterationCount(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "metrics.jsonl"), filepath.Join(dir, "progress.jsonl"))

	require.NoError(t, s.AppendProgress(iteration.Record{TaskID: "RALPH-1", Iteration: 1, Result: iteration.StatusContinue}))
	require.NoError(t, s.AppendProgress(iteration.Record{TaskID: "RALPH-1", Iteration: 2, Result: iteration.StatusComplete}))
	require.NoError(t, s.AppendProgress(iteration.Record{TaskID: "RALPH-2", Iteration: 1, Result: iteration.StatusComplete}))

	completedAt := time.Now()
	tk := &task.Task{ID: "RALPH-1", Type: task.TypeFeature, CreatedAt: completedAt.Add(-48 * time.Hour), CompletedAt: &completedAt}

	require.NoError(t, s.RecordTask(tk, 3, 40, 0))

	all, err := s.AllMetrics()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 2, all[0].Iterations)
	assert.Equal(t, "RALPH-1", all[0].TaskID)
}

func TestStore_CurrentAggregateRollsUpRecordedMetrics(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "metrics.jsonl"), filepath.Join(dir, "progress.jsonl"))

	done := time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC)
	tasks := map[string]*task.Task{
		"RALPH-1": {ID: "RALPH-1", Status: task.StatusDone, CreatedAt: done.Add(-24 * time.Hour), CompletedAt: &done},
		"RALPH-2": {ID: "RALPH-2", Status: task.StatusCancelled, CreatedAt: done},
	}
	require.NoError(t, s.RecordTask(tasks["RALPH-1"], 2, 10, 0))

	agg, err := s.CurrentAggregate(CurrentMonthPeriod(done), tasks, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, agg.TasksCreated)
	assert.Equal(t, 1, agg.TasksFailed)
	assert.Equal(t, 1, agg.TasksCompleted)
	assert.Equal(t, 5, agg.TotalCommits)
}
