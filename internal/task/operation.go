package task

import "time"

// OpKind names the four operation shapes the log may carry.
type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpLink   OpKind = "link"
	OpRelate OpKind = "relate"
)

// Relation names an edge kind for a "relate" operation.
type Relation string

const (
	RelationBlocks    Relation = "blocks"
	RelationBlockedBy Relation = "blockedBy"
	RelationParent    Relation = "parent"
	RelationSubtask   Relation = "subtask"
)

// Changes is a partial-update payload: only non-nil/non-empty fields are
// applied by the projector. Pointer fields distinguish "not present" from
// "set to the zero value".
type Changes struct {
	Type        *Type       `json:"type,omitempty"`
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      *Status     `json:"status,omitempty"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
	Parent      *string     `json:"parent,omitempty"`
	BlockedBy   []string    `json:"blockedBy,omitempty"`
	Aggregate   *string     `json:"aggregate,omitempty"`
	Domain      *string     `json:"domain,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Priority    *int        `json:"priority,omitempty"`
	Complexity  *Complexity `json:"complexity,omitempty"`
	Estimate    *float64    `json:"estimate,omitempty"`
	Actual      *float64    `json:"actual,omitempty"`
	Spec        *string     `json:"spec,omitempty"`
	Completion  *Completion `json:"completion,omitempty"`
}

// Operation is one journaled mutation to the task state.
type Operation struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      OpKind    `json:"kind"`

	// Subject is the task ID the operation acts on (create/update/link/relate).
	ID string `json:"id"`

	// Payload for "create": the full initial task. Ignored for other kinds.
	Task *Task `json:"task,omitempty"`

	// Payload for "update": the fields to merge.
	Changes *Changes `json:"changes,omitempty"`

	// Payload for "link".
	ExternalID  string `json:"externalId,omitempty"`
	ExternalURL string `json:"externalUrl,omitempty"`

	// Payload for "relate".
	Relation Relation `json:"relation,omitempty"`
	TargetID string   `json:"targetId,omitempty"`
}
