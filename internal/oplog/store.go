package oplog

import (
	"github.com/daydemir/ralph/internal/task"
)

// Mode governs what happens when a proposed operation fails schema
// validation.
type Mode int

const (
	// Strict rejects the operation: it is never appended, and the error is
	// returned to the caller.
	Strict Mode = iota
	// Resilient appends the operation anyway and returns the validation
	// error alongside it, so the loop cannot deadlock on drift (the policy
	// used for status updates).
	Resilient
)

// Store pairs a Log with the schema validator, giving callers a single
// Propose entry point instead of hand-rolling validate-then-append.
type Store struct {
	log *Log
}

// NewStore wraps an existing Log.
func NewStore(log *Log) *Store {
	return &Store{log: log}
}

// Project folds the underlying log into the current task map.
func (s *Store) Project() (map[string]*task.Task, error) {
	return s.log.Project()
}

// Propose validates op against the log's current projected state and, per
// mode, either rejects it or appends it regardless. It returns the current
// task map (post-append, if appended) and any validation error.
func (s *Store) Propose(op task.Operation, mode Mode) (map[string]*task.Task, *task.ValidationError, error) {
	tasks, err := s.log.Project()
	if err != nil {
		return nil, nil, err
	}

	verr := task.Validate(tasks, op)
	if verr != nil && mode == Strict {
		return tasks, verr, nil
	}

	if err := s.log.Append(op); err != nil {
		return tasks, verr, err
	}

	applied, err := s.log.Project()
	if err != nil {
		return tasks, verr, err
	}
	return applied, verr, nil
}
