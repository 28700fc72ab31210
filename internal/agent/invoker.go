package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// systemPrompt enforces a JSON-only response envelope so CLIInvoker can
// parse structured tool calls out of a plain-text coding agent.
const systemPrompt = `You are operating as an autonomous coding agent. Respond with a single
JSON object: {"content": string, "tool_calls": [{"name": string, "args": object}], "finish_reason": "stop"|"tool_calls"|"length"}.
Never include any other text before or after the JSON object.`

// CLIInvoker is a Provider that shells out to a CLI-based coding agent
// binary (e.g. a local "claude" or "codex" executable), following the
// http.Client pattern: construct once, reuse for every call.
type CLIInvoker struct {
	BinaryPath string
	Timeout    time.Duration
	ExtraArgs  []string
}

// NewCLIInvoker returns a CLIInvoker with a sane default timeout.
func NewCLIInvoker(binaryPath string) *CLIInvoker {
	return &CLIInvoker{BinaryPath: binaryPath, Timeout: 5 * time.Minute}
}

type wireRequest struct {
	SystemPrompt string          `json:"system_prompt"`
	Messages     []wireMessage   `json:"messages"`
	Tools        []ToolSpec      `json:"tools"`
}

type wireMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type wireResponse struct {
	Content      string           `json:"content"`
	ToolCalls    []wireToolCall   `json:"tool_calls"`
	FinishReason FinishReason     `json:"finish_reason"`
	Usage        *Usage           `json:"usage,omitempty"`
}

type wireToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Chat invokes the configured binary, feeding it the conversation as a JSON
// request on stdin and parsing its JSON response from stdout.
func (c *CLIInvoker) Chat(ctx context.Context, messages []Message, tools []ToolSpec) (Response, error) {
	req := wireRequest{SystemPrompt: systemPrompt, Tools: tools}
	for _, m := range messages {
		req.Messages = append(req.Messages, wireMessage{Role: m.Role, Content: m.Content})
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("marshal agent request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	args := append([]string{"--output-format", "json"}, c.ExtraArgs...)
	cmd := exec.CommandContext(callCtx, c.BinaryPath, args...)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Response{FinishReason: FinishError}, fmt.Errorf("invoke agent: %w: %s", err, stderr.String())
	}

	resp, err := parseResponse(stdout.Bytes())
	if err != nil {
		return Response{FinishReason: FinishError}, err
	}
	return resp, nil
}

// parseResponse extracts the JSON envelope from the agent's stdout, falling
// back to a brace-matching scan if the binary wrapped it in other output.
func parseResponse(raw []byte) (Response, error) {
	var wr wireResponse
	if err := json.Unmarshal(raw, &wr); err == nil {
		return toResponse(wr), nil
	}

	text := string(raw)
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return Response{}, fmt.Errorf("agent response did not contain a JSON object")
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &wr); err != nil {
		return Response{}, fmt.Errorf("parse agent response: %w", err)
	}
	return toResponse(wr), nil
}

func toResponse(wr wireResponse) Response {
	resp := Response{
		Content:      wr.Content,
		FinishReason: wr.FinishReason,
		Usage:        wr.Usage,
	}
	if resp.FinishReason == "" {
		resp.FinishReason = FinishStop
	}
	for _, tc := range wr.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, ToolCall{ID: tc.ID, Name: tc.Name, Args: tc.Args})
	}
	if len(resp.ToolCalls) > 0 && wr.FinishReason == "" {
		resp.FinishReason = FinishToolCalls
	}
	return resp
}
