// Package selector chooses the next eligible task from the projected task
// map, respecting blocking relations, priority, and an explicit filter
// override.
package selector

import (
	"sort"

	"github.com/daydemir/ralph/internal/task"
)

// Select returns the next task to run. If filterID is non-empty, it is the
// filter path: the named task is returned iff it exists and is not
// terminal, blocked or not. Otherwise the default path applies.
func Select(tasks map[string]*task.Task, filterID string) *task.Task {
	if filterID != "" {
		t, ok := tasks[filterID]
		if !ok || t.Status.IsTerminal() {
			return nil
		}
		return t
	}

	candidates := eligible(tasks)
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return less(candidates[i], candidates[j])
	})
	return candidates[0]
}

// eligible returns tasks in {pending, in_progress, discovered} that are not
// currently blocked.
func eligible(tasks map[string]*task.Task) []*task.Task {
	var out []*task.Task
	for _, t := range tasks {
		switch t.Status {
		case task.StatusPending, task.StatusInProgress, task.StatusDiscovered:
		default:
			continue
		}
		if IsBlocked(tasks, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// IsBlocked reports whether t has at least one blocker that exists in tasks
// and is not in a terminal state. Blockers absent from the map do not block,
// and a task with no blockedBy entries is never blocked.
func IsBlocked(tasks map[string]*task.Task, t *task.Task) bool {
	for _, blockerID := range t.BlockedBy {
		blocker, ok := tasks[blockerID]
		if !ok {
			continue
		}
		if !blocker.Status.IsTerminal() {
			return true
		}
	}
	return false
}

// less orders candidates: in-progress first, then priority descending, then
// createdAt ascending.
func less(a, b *task.Task) bool {
	aInProgress := a.Status == task.StatusInProgress
	bInProgress := b.Status == task.StatusInProgress
	if aInProgress != bInProgress {
		return aInProgress
	}
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
