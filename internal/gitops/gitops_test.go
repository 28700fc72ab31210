package gitops

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) *Git {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	run("init")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("seed"), 0o644))
	run("add", ".")
	run("commit", "-m", "seed")
	return New(dir)
}

func TestGit_CommitWithoutAddIsANoOp(t *testing.T) {
	g := initRepo(t)
	ctx := context.Background()

	before, err := g.run(ctx, "rev-parse", "HEAD")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(g.WorkDir, "untracked.txt"), []byte("x"), 0o644))
	sha, err := g.Commit(ctx, "should not create a commit")
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(before), sha)
}

func TestGit_AddThenCommitRecordsTheFile(t *testing.T) {
	g := initRepo(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(g.WorkDir, "new.txt"), []byte("content"), 0o644))
	require.NoError(t, g.Add(ctx))
	sha, err := g.Commit(ctx, "add new.txt")
	require.NoError(t, err)
	require.NotEmpty(t, sha)

	subjects, err := g.RecentCommitSubjects(ctx, 1)
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	require.Equal(t, "add new.txt", subjects[0])
}

func TestGit_CommitCountFiltersByDate(t *testing.T) {
	g := initRepo(t)
	ctx := context.Background()

	now := time.Now()
	n, err := g.CommitCount(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = g.CommitCount(ctx, now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
