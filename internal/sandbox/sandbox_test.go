package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSandbox_RollbackThenFlushIsNoOp(t *testing.T) {
	dir := t.TempDir()
	sb := New(dir, Policy{}, 0)

	require.NoError(t, sb.WriteFile("a.txt", "1"))
	require.NoError(t, sb.WriteFile("b.txt", "2"))
	sb.Rollback()

	changes, err := sb.Flush()
	require.NoError(t, err)
	assert.Empty(t, changes)

	_, err = os.Stat(filepath.Join(dir, "a.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestSandbox_WriteThenFlushPersistsToDisk(t *testing.T) {
	dir := t.TempDir()
	sb := New(dir, Policy{}, 0)

	require.NoError(t, sb.WriteFile("nested/out.txt", "hello"))
	changes, err := sb.Flush()
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, ChangeCreated, changes[0].Kind)

	data, err := os.ReadFile(filepath.Join(dir, "nested", "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestSandbox_ReadFileSeesStagedWriteBeforeFlush(t *testing.T) {
	dir := t.TempDir()
	sb := New(dir, Policy{}, 0)
	require.NoError(t, sb.WriteFile("a.txt", "staged"))

	content, err := sb.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "staged", content)
}

func TestSandbox_DeleteFileStagedThenFlushRemoves(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0644))

	sb := New(dir, Policy{}, 0)
	require.NoError(t, sb.DeleteFile("a.txt"))
	assert.False(t, sb.Exists("a.txt"))

	changes, err := sb.Flush()
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, ChangeDeleted, changes[0].Kind)

	_, err = os.Stat(filepath.Join(dir, "a.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestSandbox_DenyListWinsOverAllowList(t *testing.T) {
	dir := t.TempDir()
	policy := Policy{PathAllow: []string{""}, PathDeny: []string{"secrets/"}}
	sb := New(dir, policy, 0)

	err := sb.WriteFile("secrets/key.pem", "nope")
	assert.ErrorIs(t, err, ErrDenied)
}

func TestSandbox_BashDeniedCommandReturnsExit126(t *testing.T) {
	dir := t.TempDir()
	policy := Policy{CommandDeny: []string{"rm -rf"}}
	sb := New(dir, policy, 0)

	result, err := sb.Bash("rm -rf /")
	require.NoError(t, err)
	assert.Equal(t, 126, result.ExitCode)
}

func TestSandbox_BashNonZeroExitDoesNotError(t *testing.T) {
	dir := t.TempDir()
	sb := New(dir, Policy{}, 0)

	result, err := sb.Bash("exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)
}

func TestSandbox_BashDeniesOnceMaxCommandsReached(t *testing.T) {
	dir := t.TempDir()
	sb := New(dir, Policy{MaxCommands: 2}, 0)

	for i := 0; i < 2; i++ {
		result, err := sb.Bash("true")
		require.NoError(t, err)
		assert.Equal(t, 0, result.ExitCode)
	}

	result, err := sb.Bash("true")
	require.NoError(t, err)
	assert.Equal(t, 126, result.ExitCode)
	assert.Equal(t, 2, sb.Accounting().CommandsRun)
}

func TestSandbox_ReadFileWithoutCacheEnabledSeesDiskChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("first"), 0644))

	sb := New(dir, Policy{}, 0)
	content, err := sb.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "first", content)

	require.NoError(t, os.WriteFile(path, []byte("second"), 0644))
	content, err = sb.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "second", content)
}

func TestSandbox_ReadFileWithCacheEnabledStoresReadInCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("first"), 0644))

	sb := New(dir, Policy{CacheEnabled: true}, 0)
	content, err := sb.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "first", content)
	require.Len(t, sb.cache, 1)
}
