// Package tracker abstracts push/pull synchronization with an external
// issue system: creation, transitions, comments, and status reconciliation.
package tracker

import (
	"context"

	"github.com/daydemir/ralph/internal/task"
)

// IssueRef is what a tracker call returns: the remote identity of an issue.
type IssueRef struct {
	ID     string
	URL    string
	Status string
}

// Filter narrows a FindIssues query. All fields are optional.
type Filter struct {
	Project string
	Status  string
	Query   string
}

// Partial is a partial update to push to the remote issue.
type Partial struct {
	Title       *string
	Description *string
}

// Transition names a remote-side status change target available for an
// issue, as reported by GetTransitions.
type Transition struct {
	ID   string
	Name string
}

// Tracker is the abstract capability surface every adapter implements.
type Tracker interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	HealthCheck(ctx context.Context) error

	CreateIssue(ctx context.Context, t *task.Task) (IssueRef, error)
	UpdateIssue(ctx context.Context, id string, partial Partial) error
	GetIssue(ctx context.Context, id string) (IssueRef, error)
	FindIssues(ctx context.Context, filter Filter) ([]IssueRef, error)
	CreateSubtask(ctx context.Context, parentID string, t *task.Task) (IssueRef, error)
	LinkIssues(ctx context.Context, fromID, toID string, relation task.Relation) error
	TransitionIssue(ctx context.Context, id, statusName string) error
	GetTransitions(ctx context.Context, id string) ([]Transition, error)
	AddComment(ctx context.Context, id, body string) error
}

// Auth is one of the three supported credential shapes.
type Auth struct {
	BearerToken string
	OAuthToken  string
	Username    string
	Password    string
}

// Config carries everything an adapter needs to talk to one tracker
// instance, plus the sync policy the tracker bridge applies around it.
type Config struct {
	Kind             string
	Project          string
	BaseURL          string
	IssueTypeMap     map[task.Type]string
	StatusMap        map[task.Status]string
	ReverseStatusMap map[string]task.Status
	AutoCreate       bool
	AutoTransition   bool
	AutoComment      bool
	AutoPull         bool
	DryRun           bool
	Auth             Auth
}

// Factory constructs a Tracker from a Config.
type Factory func(cfg Config) (Tracker, error)
