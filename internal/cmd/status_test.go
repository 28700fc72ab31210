package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daydemir/ralph/internal/oplog"
	"github.com/daydemir/ralph/internal/task"
)

// withWorkDir chdirs into a fresh temp directory with a seeded state/
// operation log, restoring the original working directory on cleanup.
func withWorkDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "state"), 0o755))
	log := oplog.Open(filepath.Join(dir, "state", "tasks.jsonl"))
	store := oplog.NewStore(log)
	_, _, err = store.Propose(task.Operation{
		Kind: task.OpCreate, ID: "RALPH-001", Timestamp: time.Now(),
		Task: &task.Task{ID: "RALPH-001", Title: "seed task", Status: task.StatusPending},
	}, oplog.Strict)
	require.NoError(t, err)
	return dir
}

func TestStatusCommand_PrintsCounts(t *testing.T) {
	withWorkDir(t)

	root := NewRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"status", "--config", "does-not-exist.json"})

	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "total: 1")
	assert.Contains(t, buf.String(), "pending")
}
