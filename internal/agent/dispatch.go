package agent

import (
	"fmt"
	"time"

	"github.com/daydemir/ralph/internal/sandbox"
)

// ActionType classifies an executed tool call for the iteration log.
type ActionType string

const (
	ActionReadFile     ActionType = "read_file"
	ActionWriteFile    ActionType = "write_file"
	ActionRunBash      ActionType = "run_bash"
	ActionTaskComplete ActionType = "task_complete"
	ActionTaskBlocked  ActionType = "task_blocked"
)

// Action records one executed tool call: type, target, duration, timestamp,
// and output — the unit the iteration engine accumulates per iteration.
type Action struct {
	Type      ActionType
	Target    string
	Timestamp time.Time
	Duration  time.Duration
	Output    string
}

// Outcome is a terminal signal extracted from a task_complete/task_blocked
// call.
type Outcome struct {
	Complete  bool
	Blocked   bool
	Artifacts []string
	Summary   string
	Blocker   string
}

// Dispatch executes one tool call against sb and returns the rendered
// output (what the agent sees as the tool result) plus the Action record.
// task_complete/task_blocked do not touch the sandbox; their effect is
// reported via the returned Outcome.
func Dispatch(sb *sandbox.Sandbox, call ToolCall) (string, Action, Outcome) {
	start := time.Now()
	switch call.Name {
	case "read_file":
		path, _ := call.Args["path"].(string)
		content, err := sb.ReadFile(path)
		out := content
		if err != nil {
			out = "error: " + err.Error()
		}
		return out, Action{Type: ActionReadFile, Target: path, Timestamp: start, Duration: time.Since(start), Output: out}, Outcome{}

	case "write_file":
		path, _ := call.Args["path"].(string)
		content, _ := call.Args["content"].(string)
		err := sb.WriteFile(path, content)
		out := fmt.Sprintf("%d bytes written", len(content))
		if err != nil {
			out = "error: " + err.Error()
		}
		return out, Action{Type: ActionWriteFile, Target: path, Timestamp: start, Duration: time.Since(start), Output: out}, Outcome{}

	case "run_bash":
		command, _ := call.Args["command"].(string)
		result, err := sb.Bash(command)
		out := sandbox.FormatResult(result)
		if err != nil {
			out = "error: " + err.Error()
		}
		return out, Action{Type: ActionRunBash, Target: command, Timestamp: start, Duration: time.Since(start), Output: out}, Outcome{}

	case "task_complete":
		artifacts := toStringSlice(call.Args["artifacts"])
		summary, _ := call.Args["summary"].(string)
		outcome := Outcome{Complete: true, Artifacts: artifacts, Summary: summary}
		return "acknowledged: task complete", Action{Type: ActionTaskComplete, Timestamp: start, Duration: time.Since(start), Output: summary}, outcome

	case "task_blocked":
		blocker, _ := call.Args["blocker"].(string)
		outcome := Outcome{Blocked: true, Blocker: blocker}
		return "acknowledged: task blocked", Action{Type: ActionTaskBlocked, Target: blocker, Timestamp: start, Duration: time.Since(start), Output: blocker}, outcome

	default:
		out := "error: unknown tool " + call.Name
		return out, Action{Type: ActionType(call.Name), Timestamp: start, Duration: time.Since(start), Output: out}, Outcome{}
	}
}

func toStringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
