package iteration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daydemir/ralph/internal/agent"
	"github.com/daydemir/ralph/internal/sandbox"
	"github.com/daydemir/ralph/internal/task"
)

type scriptedProvider struct {
	responses []agent.Response
	calls     int
}

func (p *scriptedProvider) Chat(ctx context.Context, messages []agent.Message, tools []agent.ToolSpec) (agent.Response, error) {
	r := p.responses[p.calls]
	p.calls++
	return r, nil
}

func TestEngine_TaskCompleteIsTerminal(t *testing.T) {
	provider := &scriptedProvider{responses: []agent.Response{
		{FinishReason: agent.FinishToolCalls, ToolCalls: []agent.ToolCall{
			{Name: "task_complete", Args: map[string]any{"artifacts": []any{"out.txt"}, "summary": "done"}},
		}},
	}}
	eng := &Engine{Provider: provider, Rates: DefaultRates(), Budgets: DefaultBudgets()}
	sb := sandbox.New(t.TempDir(), sandbox.Policy{}, 0)
	run := NewRunBudgetTracker(DefaultBudgets())

	outcome := eng.Run(context.Background(), &task.Task{ID: "RALPH-001"}, sb, run)
	assert.Equal(t, StatusComplete, outcome.Status)
	assert.Equal(t, []string{"out.txt"}, outcome.Artifacts)
	assert.Equal(t, 1, outcome.Iterations)
}

func TestEngine_CompletionCriterionShortCircuitsWithoutTaskComplete(t *testing.T) {
	sb := sandbox.New(t.TempDir(), sandbox.Policy{}, 0)
	provider := &scriptedProvider{responses: []agent.Response{
		{FinishReason: agent.FinishToolCalls, ToolCalls: []agent.ToolCall{
			{Name: "write_file", Args: map[string]any{"path": "out.txt", "content": "x"}},
		}},
		{FinishReason: agent.FinishStop}, // would be hit if criterion didn't short-circuit
	}}
	eng := &Engine{Provider: provider, Rates: DefaultRates(), Budgets: DefaultBudgets()}
	run := NewRunBudgetTracker(DefaultBudgets())

	tk := &task.Task{ID: "RALPH-002", Completion: &task.Completion{Kind: "file_exists", Path: "out.txt"}}
	outcome := eng.Run(context.Background(), tk, sb, run)

	require.Equal(t, StatusComplete, outcome.Status)
	assert.Equal(t, 1, outcome.Iterations)
	assert.Equal(t, 1, provider.calls)
}

func TestEngine_TaskBlocked(t *testing.T) {
	provider := &scriptedProvider{responses: []agent.Response{
		{FinishReason: agent.FinishToolCalls, ToolCalls: []agent.ToolCall{
			{Name: "task_blocked", Args: map[string]any{"blocker": "missing credentials"}},
		}},
	}}
	eng := &Engine{Provider: provider, Rates: DefaultRates(), Budgets: DefaultBudgets()}
	sb := sandbox.New(t.TempDir(), sandbox.Policy{}, 0)
	run := NewRunBudgetTracker(DefaultBudgets())

	outcome := eng.Run(context.Background(), &task.Task{ID: "RALPH-003"}, sb, run)
	assert.Equal(t, StatusBlocked, outcome.Status)
	assert.Equal(t, "missing credentials", outcome.Reason)
}

func TestEngine_TaskCompleteWinsOverTaskBlockedInSameResponse(t *testing.T) {
	provider := &scriptedProvider{responses: []agent.Response{
		{FinishReason: agent.FinishToolCalls, ToolCalls: []agent.ToolCall{
			{Name: "task_blocked", Args: map[string]any{"blocker": "missing credentials"}},
			{Name: "task_complete", Args: map[string]any{"summary": "done"}},
		}},
	}}
	eng := &Engine{Provider: provider, Rates: DefaultRates(), Budgets: DefaultBudgets()}
	sb := sandbox.New(t.TempDir(), sandbox.Policy{}, 0)
	run := NewRunBudgetTracker(DefaultBudgets())

	outcome := eng.Run(context.Background(), &task.Task{ID: "RALPH-004"}, sb, run)
	assert.Equal(t, StatusComplete, outcome.Status)
	assert.Equal(t, "done", outcome.Reason)
}

func TestEngine_MaxIterationsExhaustedFails(t *testing.T) {
	budgets := DefaultBudgets()
	budgets.MaxIterationsPerTask = 2
	responses := make([]agent.Response, 2)
	for i := range responses {
		responses[i] = agent.Response{FinishReason: agent.FinishStop}
	}
	provider := &scriptedProvider{responses: responses}
	eng := &Engine{Provider: provider, Rates: DefaultRates(), Budgets: budgets}
	sb := sandbox.New(t.TempDir(), sandbox.Policy{}, 0)
	run := NewRunBudgetTracker(budgets)

	outcome := eng.Run(context.Background(), &task.Task{ID: "RALPH-004"}, sb, run)
	assert.Equal(t, StatusFailed, outcome.Status)
	assert.Equal(t, 2, outcome.Iterations)
}

func TestDecide_RetryUpToMaxThenBlocks(t *testing.T) {
	outcome := Outcome{Status: StatusFailed, Reason: "boom"}
	d := Decide(OnFailureRetry, 0, 2, outcome)
	assert.True(t, d.Retry)

	d = Decide(OnFailureRetry, 2, 2, outcome)
	assert.False(t, d.Retry)
	assert.Equal(t, "boom", d.BlockedBy)
}

func TestDecide_StopEndsRun(t *testing.T) {
	d := Decide(OnFailureStop, 0, 2, Outcome{Status: StatusFailed, Reason: "boom"})
	assert.True(t, d.StopRun)
}
