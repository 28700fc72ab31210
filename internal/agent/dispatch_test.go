package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daydemir/ralph/internal/sandbox"
)

func TestDispatch_WriteThenReadFile(t *testing.T) {
	sb := sandbox.New(t.TempDir(), sandbox.Policy{}, 0)

	out, action, outcome := Dispatch(sb, ToolCall{Name: "write_file", Args: map[string]any{"path": "out.txt", "content": "hi"}})
	assert.Contains(t, out, "2 bytes")
	assert.Equal(t, ActionWriteFile, action.Type)
	assert.False(t, outcome.Complete)

	out, _, _ = Dispatch(sb, ToolCall{Name: "read_file", Args: map[string]any{"path": "out.txt"}})
	assert.Equal(t, "hi", out)
}

func TestDispatch_TaskCompleteSignalsOutcome(t *testing.T) {
	sb := sandbox.New(t.TempDir(), sandbox.Policy{}, 0)
	_, _, outcome := Dispatch(sb, ToolCall{Name: "task_complete", Args: map[string]any{
		"artifacts": []any{"out.txt"}, "summary": "done",
	}})
	require.True(t, outcome.Complete)
	assert.Equal(t, []string{"out.txt"}, outcome.Artifacts)
}

func TestDispatch_TaskBlockedSignalsOutcome(t *testing.T) {
	sb := sandbox.New(t.TempDir(), sandbox.Policy{}, 0)
	_, _, outcome := Dispatch(sb, ToolCall{Name: "task_blocked", Args: map[string]any{"blocker": "need creds"}})
	require.True(t, outcome.Blocked)
	assert.Equal(t, "need creds", outcome.Blocker)
}
