package improve

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/daydemir/ralph/internal/gitops"
)

// ApplyResult records the outcome of applying one proposal.
type ApplyResult struct {
	ProposalID string
	Applied    bool
	Error      string
}

// Event is an `improvement_applied` (or error) learning-log entry.
type Event struct {
	Type       string    `json:"type"`
	ProposalID string    `json:"proposalId"`
	Target     string    `json:"target"`
	Timestamp  time.Time `json:"timestamp"`
	Error      string    `json:"error,omitempty"`
}

// Apply runs the branch-create/splice/commit pipeline for every pending
// proposal, isolating each proposal's failure from the others. root is the
// workspace root the target paths are relative to.
func Apply(ctx context.Context, git gitops.Ops, root string, proposals []*Proposal, now time.Time) ([]ApplyResult, []Event) {
	original, err := git.CurrentBranch(ctx)
	if err != nil || original == "" {
		original = "main"
	}

	branch := fmt.Sprintf("ralph/learn-%s", gitops.SanitizeBranchSuffix(now))
	if err := git.Branch(ctx, branch); err != nil {
		var results []ApplyResult
		var events []Event
		for _, p := range proposals {
			if p.Status != StatusPending {
				continue
			}
			p.Status = StatusError
			results = append(results, ApplyResult{ProposalID: p.ID, Error: fmt.Sprintf("create branch: %v", err)})
			events = append(events, Event{Type: "improvement_applied", ProposalID: p.ID, Target: p.Target, Timestamp: now, Error: err.Error()})
		}
		return results, events
	}

	var results []ApplyResult
	var events []Event
	for _, p := range proposals {
		if p.Status != StatusPending {
			continue
		}
		if err := applyOne(ctx, git, root, p); err != nil {
			p.Status = StatusError
			results = append(results, ApplyResult{ProposalID: p.ID, Error: err.Error()})
			events = append(events, Event{Type: "improvement_applied", ProposalID: p.ID, Target: p.Target, Timestamp: now, Error: err.Error()})
			continue
		}
		p.Status = StatusApplied
		results = append(results, ApplyResult{ProposalID: p.ID, Applied: true})
		events = append(events, Event{Type: "improvement_applied", ProposalID: p.ID, Target: p.Target, Timestamp: now})
	}

	if err := git.Checkout(ctx, original); err != nil {
		events = append(events, Event{Type: "improvement_applied", Target: "checkout:" + original, Timestamp: now, Error: err.Error()})
	}

	return results, events
}

func applyOne(ctx context.Context, git gitops.Ops, root string, p *Proposal) error {
	path := filepath.Join(root, p.Target)

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", p.Target, err)
	}

	spliced := Splice(string(existing), p.Section, p.Content)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", p.Target, err)
	}
	if err := os.WriteFile(path, []byte(spliced), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", p.Target, err)
	}

	if err := git.Add(ctx, p.Target); err != nil {
		return fmt.Errorf("stage %s: %w", p.Target, err)
	}
	if _, err := git.Commit(ctx, fmt.Sprintf("RALPH-LEARN: %s", p.Title)); err != nil {
		return fmt.Errorf("commit %s: %w", p.Target, err)
	}
	return nil
}
