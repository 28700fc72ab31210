// Package task defines Ralph's task record, its status lifecycle, and the
// operation-log projector and validator that build and guard it.
package task

import "time"

// Type classifies the kind of work a task represents.
type Type string

const (
	TypeEpic     Type = "epic"
	TypeFeature  Type = "feature"
	TypeTask     Type = "task"
	TypeSubtask  Type = "subtask"
	TypeBug      Type = "bug"
	TypeRefactor Type = "refactor"
	TypeDocs     Type = "docs"
	TypeTest     Type = "test"
	TypeSpike    Type = "spike"
)

// Complexity is a coarse difficulty hint used by estimation and detectors.
type Complexity string

const (
	ComplexityTrivial  Complexity = "trivial"
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Status is one of the seven lifecycle states a task may occupy.
type Status string

const (
	StatusDiscovered Status = "discovered"
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether no further transitions are possible from s.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusCancelled
}

// transitions is the closed state machine of valid status changes: the only
// valid (old, new) pairs. Same-state pairs are deliberately absent — a status "update" to the
// status a task already holds is not a transition, it is a no-op the caller
// should simply not emit.
var transitions = map[Status]map[Status]bool{
	StatusDiscovered: {StatusPending: true, StatusCancelled: true},
	StatusPending:    {StatusInProgress: true, StatusBlocked: true, StatusCancelled: true},
	StatusInProgress: {StatusDone: true, StatusBlocked: true, StatusReview: true, StatusCancelled: true},
	StatusBlocked:    {StatusPending: true, StatusCancelled: true},
	StatusReview:     {StatusDone: true, StatusCancelled: true},
	StatusDone:       {},
	StatusCancelled:  {},
}

// ValidTransition reports whether moving from old to new is allowed.
func ValidTransition(old, new_ Status) bool {
	allowed, ok := transitions[old]
	if !ok {
		return false
	}
	return allowed[new_]
}

// Source records where a task was discovered from.
type Source struct {
	Path      string    `json:"path,omitempty"`
	Line      int       `json:"line,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Completion is a task-defined, best-effort completion criterion that the
// iteration engine can check independently of the agent's own signal.
type Completion struct {
	// Kind is one of "file_exists" or "command_succeeds".
	Kind string `json:"kind"`
	// Path is the workspace-relative file path for kind=file_exists.
	Path string `json:"path,omitempty"`
	// Command is the shell command for kind=command_succeeds.
	Command string `json:"command,omitempty"`
}

// Task is the unit of work Ralph tracks. It is never mutated in place: the
// only legitimate way to change a Task is to append an Operation to the
// operation log and refold.
type Task struct {
	ID          string     `json:"id"`
	Type        Type       `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	Parent   string   `json:"parent,omitempty"`
	Subtasks []string `json:"subtasks,omitempty"`
	Blocks   []string `json:"blocks,omitempty"`
	BlockedBy []string `json:"blockedBy,omitempty"`

	ExternalID  string `json:"externalId,omitempty"`
	ExternalURL string `json:"externalUrl,omitempty"`

	Aggregate  string   `json:"aggregate,omitempty"`
	Domain     string   `json:"domain,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Priority   int      `json:"priority,omitempty"`
	Complexity Complexity `json:"complexity,omitempty"`
	Estimate   float64  `json:"estimate,omitempty"`
	Actual     float64  `json:"actual,omitempty"`

	Spec   string  `json:"spec,omitempty"`
	Source *Source `json:"source,omitempty"`

	Completion *Completion `json:"completion,omitempty"`
}

// Clone returns a defensive deep-enough copy of t: slices and the optional
// pointer fields get fresh backing storage so callers can't reach back into
// projector-owned state.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Subtasks = append([]string(nil), t.Subtasks...)
	c.Blocks = append([]string(nil), t.Blocks...)
	c.BlockedBy = append([]string(nil), t.BlockedBy...)
	c.Tags = append([]string(nil), t.Tags...)
	if t.CompletedAt != nil {
		ts := *t.CompletedAt
		c.CompletedAt = &ts
	}
	if t.Source != nil {
		src := *t.Source
		c.Source = &src
	}
	if t.Completion != nil {
		comp := *t.Completion
		c.Completion = &comp
	}
	return &c
}
