package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daydemir/ralph/internal/task"
)

func TestComputeAggregate_FiltersOutsidePeriodByCreatedAtAndCompletedAt(t *testing.T) {
	inPeriod := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	outOfPeriod := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	tasks := map[string]*task.Task{
		"RALPH-1": {ID: "RALPH-1", Status: task.StatusDone, CreatedAt: inPeriod},
		"RALPH-2": {ID: "RALPH-2", Status: task.StatusCancelled, CreatedAt: outOfPeriod},
	}
	records := []TaskMetric{
		{TaskID: "RALPH-1", CompletedAt: inPeriod},
		{TaskID: "RALPH-3", CompletedAt: outOfPeriod},
	}

	agg := ComputeAggregate("2026-07", tasks, records, 3)
	assert.Equal(t, 1, agg.TasksCreated)
	assert.Equal(t, 0, agg.TasksFailed)
	assert.Equal(t, 1, agg.TasksCompleted)
	assert.Equal(t, 3, agg.TotalCommits)
}

func TestComputeAggregate_UnboundedPeriodCountsEverything(t *testing.T) {
	tasks := map[string]*task.Task{
		"RALPH-1": {ID: "RALPH-1", Status: task.StatusDone, CreatedAt: time.Now()},
		"RALPH-2": {ID: "RALPH-2", Status: task.StatusCancelled, CreatedAt: time.Now().AddDate(0, -6, 0)},
	}
	agg := ComputeAggregate("all-time", tasks, nil, 0)
	assert.Equal(t, 2, agg.TasksCreated)
	assert.Equal(t, 1, agg.TasksFailed)
}

func TestPeriodBounds_ParsesCalendarMonth(t *testing.T) {
	start, end, ok := PeriodBounds("2026-07")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), end)

	_, _, ok = PeriodBounds("not-a-period")
	assert.False(t, ok)
}

func TestBlockerRate(t *testing.T) {
	assert.Equal(t, float64(0), BlockerRate(nil))
	records := []TaskMetric{{Blockers: 1}, {Blockers: 0}, {Blockers: 2}, {Blockers: 0}}
	assert.Equal(t, 0.5, BlockerRate(records))
}
