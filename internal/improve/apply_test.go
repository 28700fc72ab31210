package improve

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daydemir/ralph/internal/gitops"
)

type fakeGit struct {
	current      string
	branchErr    error
	committed    []string
	checkedOutTo string
}

func (g *fakeGit) CurrentBranch(ctx context.Context) (string, error) { return g.current, nil }
func (g *fakeGit) Branch(ctx context.Context, name string) error     { return g.branchErr }
func (g *fakeGit) Checkout(ctx context.Context, ref string) error {
	g.checkedOutTo = ref
	return nil
}
func (g *fakeGit) Add(ctx context.Context, paths ...string) error { return nil }
func (g *fakeGit) Commit(ctx context.Context, message string) (string, error) {
	g.committed = append(g.committed, message)
	return "deadbeef", nil
}
func (g *fakeGit) DiffStats(ctx context.Context) (gitops.DiffStats, error) {
	return gitops.DiffStats{}, nil
}

func TestApply_WritesSplicesAndCommits(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "guidance"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "guidance", "AGENTS.md"), []byte("# Guide\n"), 0o644))

	git := &fakeGit{current: "main"}
	proposals := []*Proposal{
		{ID: "IMPROVE-1", Target: "guidance/AGENTS.md", Section: "Risk Areas", Content: "## Risk Areas\n\nwatch it\n", Status: StatusPending, Title: "flag risk"},
	}

	results, events := Apply(context.Background(), git, root, proposals, time.Now())
	require.Len(t, results, 1)
	assert.True(t, results[0].Applied)
	assert.Equal(t, StatusApplied, proposals[0].Status)
	assert.Len(t, events, 1)
	assert.Equal(t, "main", git.checkedOutTo)
	require.Len(t, git.committed, 1)
	assert.Equal(t, "RALPH-LEARN: flag risk", git.committed[0])

	written, err := os.ReadFile(filepath.Join(root, "guidance", "AGENTS.md"))
	require.NoError(t, err)
	assert.Contains(t, string(written), "watch it")
}

func TestApply_BranchFailureMarksEveryProposalAsError(t *testing.T) {
	root := t.TempDir()
	git := &fakeGit{current: "main", branchErr: errors.New("branch create failed")}
	proposals := []*Proposal{
		{ID: "IMPROVE-1", Target: "guidance/AGENTS.md", Status: StatusPending},
		{ID: "IMPROVE-2", Target: "guidance/AGENTS.md", Status: StatusPending},
	}

	results, _ := Apply(context.Background(), git, root, proposals, time.Now())
	require.Len(t, results, 2)
	for _, r := range results {
		assert.False(t, r.Applied)
		assert.NotEmpty(t, r.Error)
	}
	for _, p := range proposals {
		assert.Equal(t, StatusError, p.Status)
	}
}
