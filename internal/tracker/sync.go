package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/daydemir/ralph/internal/task"
)

// Push propagates a completed or failed task to the tracker: create the
// issue if missing and autoCreate is set, transition it if linked and
// autoTransition is set, and comment if autoComment is set. Errors are
// returned for logging but never abort the caller's loop.
func Push(ctx context.Context, tr Tracker, cfg Config, t *task.Task, success bool) ([]task.Operation, error) {
	var ops []task.Operation
	now := time.Now()

	if t.ExternalID == "" {
		if !cfg.AutoCreate {
			return ops, nil
		}
		ref, err := tr.CreateIssue(ctx, t)
		if err != nil {
			return ops, fmt.Errorf("create issue for %s: %w", t.ID, err)
		}
		ops = append(ops, task.Operation{
			Kind: task.OpLink, ID: t.ID, Timestamp: now,
			ExternalID: ref.ID, ExternalURL: ref.URL,
		})
		t = t.Clone()
		t.ExternalID = ref.ID
	} else if cfg.AutoTransition {
		statusName := cfg.StatusMap[t.Status]
		if statusName == "" {
			statusName = string(t.Status)
		}
		if err := tr.TransitionIssue(ctx, t.ExternalID, statusName); err != nil {
			return ops, fmt.Errorf("transition issue for %s: %w", t.ID, err)
		}
	}

	if cfg.AutoComment && t.ExternalID != "" {
		body := "Ralph completed this task."
		if !success {
			body = "Ralph could not complete this task."
		}
		if err := tr.AddComment(ctx, t.ExternalID, body); err != nil {
			return ops, fmt.Errorf("comment on issue for %s: %w", t.ID, err)
		}
	}

	return ops, nil
}

// Pull reconciles every non-terminal, linked task against its remote status.
// The tracker's remote status always wins over the local one; errors on
// individual tasks are collected but do not abort the reconciliation.
func Pull(ctx context.Context, tr Tracker, cfg Config, tasks map[string]*task.Task) ([]task.Operation, []error) {
	if !cfg.AutoPull || cfg.DryRun {
		return nil, nil
	}

	var ops []task.Operation
	var errs []error
	now := time.Now()

	for _, t := range tasks {
		if t.ExternalID == "" || t.Status.IsTerminal() {
			continue
		}
		ref, err := tr.GetIssue(ctx, t.ExternalID)
		if err != nil {
			errs = append(errs, fmt.Errorf("pull %s: %w", t.ID, err))
			continue
		}
		mapped := ReverseStatus(cfg, ref.Status)
		if mapped == t.Status {
			continue
		}
		ops = append(ops, task.Operation{
			Kind: task.OpUpdate, ID: t.ID, Timestamp: now,
			Changes: &task.Changes{Status: &mapped},
		})
	}
	return ops, errs
}
