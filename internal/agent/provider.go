// Package agent defines the abstract agent provider the iteration engine
// drives, the five tools exposed to it, and a concrete provider that shells
// out to a CLI-based coding agent.
package agent

import "context"

// Role is the speaker of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of the conversation sent to or returned by the
// provider.
type Message struct {
	Role       Role
	Content    string
	ToolCallID string // set on RoleTool messages: which call this answers
}

// ToolSpec describes one callable tool offered to the agent.
type ToolSpec struct {
	Name        string
	Description string
	// Args names the expected JSON argument keys, for documentation only —
	// the provider is responsible for whatever schema format it needs.
	Args map[string]string
}

// ToolCall is one invocation the agent asked the engine to perform.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// FinishReason is why the provider stopped generating.
type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishToolCalls FinishReason = "tool_calls"
	FinishLength    FinishReason = "length"
	FinishError     FinishReason = "error"
)

// Usage reports token accounting for cost estimation, when the provider
// supplies it.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	Model        string
}

// Response is what a single chat call returns.
type Response struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason FinishReason
	Usage        *Usage
}

// Provider is the abstract capability the iteration engine depends on. The
// core never assumes a concrete model.
type Provider interface {
	Chat(ctx context.Context, messages []Message, tools []ToolSpec) (Response, error)
}

// Tools is the fixed set of five tools exposed to the agent, exactly as
// named in the external contract.
func Tools() []ToolSpec {
	return []ToolSpec{
		{Name: "read_file", Description: "Read a file from the sandboxed workspace.",
			Args: map[string]string{"path": "string"}},
		{Name: "write_file", Description: "Write a file in the sandboxed workspace.",
			Args: map[string]string{"path": "string", "content": "string"}},
		{Name: "run_bash", Description: "Run a shell command in the sandboxed workspace.",
			Args: map[string]string{"command": "string"}},
		{Name: "task_complete", Description: "Signal that the task is done.",
			Args: map[string]string{"artifacts": "string[]", "summary": "string (optional)"}},
		{Name: "task_blocked", Description: "Signal that the task cannot proceed.",
			Args: map[string]string{"blocker": "string"}},
	}
}
