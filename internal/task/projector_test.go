package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func strp(s string) *string       { return &s }
func statusp(s Status) *Status    { return &s }
func timep(t time.Time) *time.Time { return &t }

func TestProject_LifecycleHappyPath(t *testing.T) {
	ops := []Operation{
		{Kind: OpCreate, ID: "RALPH-001", Timestamp: ts("2025-01-01T00:00:00Z"),
			Task: &Task{ID: "RALPH-001", Title: "first", Status: StatusDiscovered}},
		{Kind: OpUpdate, ID: "RALPH-001", Timestamp: ts("2025-01-02T00:00:00Z"),
			Changes: &Changes{Status: statusp(StatusPending)}},
		{Kind: OpUpdate, ID: "RALPH-001", Timestamp: ts("2025-01-03T00:00:00Z"),
			Changes: &Changes{Status: statusp(StatusInProgress)}},
		{Kind: OpUpdate, ID: "RALPH-001", Timestamp: ts("2025-01-04T00:00:00Z"),
			Changes: &Changes{Status: statusp(StatusDone), CompletedAt: timep(ts("2025-01-04T00:00:00Z"))}},
	}

	tasks := Project(ops)
	require.Len(t, tasks, 1)
	got := tasks["RALPH-001"]
	assert.Equal(t, StatusDone, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(ts("2025-01-04T00:00:00Z")))
}

func TestProject_UpdateOnMissingTaskIsSkipped(t *testing.T) {
	ops := []Operation{
		{Kind: OpUpdate, ID: "RALPH-999", Timestamp: ts("2025-01-01T00:00:00Z"),
			Changes: &Changes{Title: strp("ghost")}},
	}
	tasks := Project(ops)
	assert.Empty(t, tasks)
}

func TestProject_RelateAccumulatesEdges(t *testing.T) {
	ops := []Operation{
		{Kind: OpCreate, ID: "A", Timestamp: ts("2025-01-01T00:00:00Z"),
			Task: &Task{ID: "A", Status: StatusPending}},
		{Kind: OpCreate, ID: "B", Timestamp: ts("2025-01-01T00:00:00Z"),
			Task: &Task{ID: "B", Status: StatusPending}},
		{Kind: OpRelate, ID: "A", Timestamp: ts("2025-01-02T00:00:00Z"),
			Relation: RelationBlocks, TargetID: "B"},
		{Kind: OpRelate, ID: "B", Timestamp: ts("2025-01-02T00:00:00Z"),
			Relation: RelationBlockedBy, TargetID: "A"},
	}
	tasks := Project(ops)
	assert.Equal(t, []string{"B"}, tasks["A"].Blocks)
	assert.Equal(t, []string{"A"}, tasks["B"].BlockedBy)
}

func TestProject_ReplayIsDeterministic(t *testing.T) {
	ops := []Operation{
		{Kind: OpCreate, ID: "A", Timestamp: ts("2025-01-01T00:00:00Z"),
			Task: &Task{ID: "A", Status: StatusDiscovered}},
		{Kind: OpUpdate, ID: "A", Timestamp: ts("2025-01-02T00:00:00Z"),
			Changes: &Changes{Status: statusp(StatusPending)}},
	}
	first := Project(ops)
	second := Project(ops)
	assert.Equal(t, first["A"].Status, second["A"].Status)
	assert.Equal(t, first["A"].UpdatedAt, second["A"].UpdatedAt)
}
