package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_RejectedSkip(t *testing.T) {
	create := Operation{Kind: OpCreate, ID: "RALPH-001", Timestamp: ts("2025-01-01T00:00:00Z"),
		Task: &Task{ID: "RALPH-001", Status: StatusDiscovered}}
	tasks := Project([]Operation{create})

	skip := Operation{Kind: OpUpdate, ID: "RALPH-001", Timestamp: ts("2025-01-02T00:00:00Z"),
		Changes: &Changes{Status: statusp(StatusDone), CompletedAt: timep(ts("2025-01-02T00:00:00Z"))}}

	err := Validate(tasks, skip)
	require.NotNil(t, err)
	assert.Equal(t, RuleValidTransition, err.Rule)
}

func TestValidate_UniqueID(t *testing.T) {
	create := Operation{Kind: OpCreate, ID: "RALPH-001", Timestamp: ts("2025-01-01T00:00:00Z"),
		Task: &Task{ID: "RALPH-001", Status: StatusDiscovered}}
	tasks := Project([]Operation{create})

	dup := Operation{Kind: OpCreate, ID: "RALPH-001", Timestamp: ts("2025-01-02T00:00:00Z"),
		Task: &Task{ID: "RALPH-001", Status: StatusDiscovered}}

	err := Validate(tasks, dup)
	require.NotNil(t, err)
	assert.Equal(t, RuleUniqueID, err.Rule)
}

func TestValidate_BlockerMustExist(t *testing.T) {
	tasks := map[string]*Task{}
	create := Operation{Kind: OpCreate, ID: "A", Timestamp: ts("2025-01-01T00:00:00Z"),
		Task: &Task{ID: "A", Status: StatusDiscovered, BlockedBy: []string{"GHOST"}}}

	err := Validate(tasks, create)
	require.NotNil(t, err)
	assert.Equal(t, RuleBlockerExists, err.Rule)
}

func TestValidate_CompletedAtRequired(t *testing.T) {
	create := Operation{Kind: OpCreate, ID: "RALPH-001", Timestamp: ts("2025-01-01T00:00:00Z"),
		Task: &Task{ID: "RALPH-001", Status: StatusPending}}
	tasks := Project([]Operation{create})

	done := Operation{Kind: OpUpdate, ID: "RALPH-001", Timestamp: ts("2025-01-02T00:00:00Z"),
		Changes: &Changes{Status: statusp(StatusInProgress)}}
	tasks = Project([]Operation{create, done})

	missingCompletedAt := Operation{Kind: OpUpdate, ID: "RALPH-001", Timestamp: ts("2025-01-03T00:00:00Z"),
		Changes: &Changes{Status: statusp(StatusDone)}}

	err := Validate(tasks, missingCompletedAt)
	require.NotNil(t, err)
	assert.Equal(t, RuleCompletedAtRequired, err.Rule)
}

func TestValidTransition_Table(t *testing.T) {
	assert.True(t, ValidTransition(StatusDiscovered, StatusPending))
	assert.True(t, ValidTransition(StatusInProgress, StatusReview))
	assert.False(t, ValidTransition(StatusDiscovered, StatusDone))
	assert.False(t, ValidTransition(StatusDone, StatusPending))
	assert.False(t, ValidTransition(StatusPending, StatusPending))
}
