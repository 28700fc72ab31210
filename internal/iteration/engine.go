// Package iteration drives the bounded per-task loop: build a prompt, call
// the agent, execute its tool calls through the sandbox, interpret the
// result, and enforce time/cost/iteration budgets.
package iteration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/daydemir/ralph/internal/agent"
	"github.com/daydemir/ralph/internal/sandbox"
	"github.com/daydemir/ralph/internal/task"
)

// Status is the terminal (or non-terminal) classification of one iteration.
type Status string

const (
	StatusComplete Status = "complete"
	StatusBlocked  Status = "blocked"
	StatusFailed   Status = "failed"
	StatusContinue Status = "continue"
)

// Record is one entry appended to the progress log.
type Record struct {
	TaskID    string    `json:"taskId"`
	Iteration int       `json:"iteration"`
	Result    Status    `json:"result"`
	Cost      float64   `json:"cost"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason,omitempty"`
}

// Outcome is the final result of running Engine.Run for one task.
type Outcome struct {
	Status    Status
	Artifacts []string
	Reason    string
	Cost      float64
	Iterations int
	Records   []Record
	Actions   []agent.Action
}

// FailurePolicy governs what the caller should do after a failed task loop.
type FailurePolicy string

const (
	OnFailureContinue FailurePolicy = "continue"
	OnFailureStop     FailurePolicy = "stop"
	OnFailureRetry    FailurePolicy = "retry"
)

// Hooks are best-effort observability callbacks. A panic from any hook is
// recovered and discarded without being logged; it never propagates.
type Hooks struct {
	OnIterationStart func(taskID string, iteration int)
	OnIterationEnd   func(taskID string, iteration int, result Status)
	OnAction         func(taskID string, action agent.Action)
}

func (h Hooks) invoke(fn func()) {
	if fn == nil {
		return
	}
	defer func() { recover() }()
	fn()
}

// Engine runs the bounded iteration loop for one task at a time.
type Engine struct {
	Provider agent.Provider
	Rates    map[string]ModelRate
	Budgets  Budgets
	Hooks    Hooks

	// LoadSpec and LoadInstructions fetch best-effort context; errors are
	// swallowed and simply omit that section.
	LoadSpec         func(t *task.Task) (string, error)
	LoadInstructions func(t *task.Task) (string, error)
}

// Run executes the bounded loop for t against sb, accumulating cost into
// run. It never returns an error: every failure mode is expressed in the
// returned Outcome, per the "main loop never dies on a single-task failure"
// principle.
func (e *Engine) Run(ctx context.Context, t *task.Task, sb *sandbox.Sandbox, run *RunBudgetTracker) Outcome {
	taskStart := time.Now()
	var totalCost float64
	var records []Record
	var actions []agent.Action
	var messages []agent.Message
	var lastResultSummary string

	maxIter := e.Budgets.MaxIterationsPerTask
	if maxIter <= 0 {
		maxIter = 1
	}

	for i := 1; i <= maxIter; i++ {
		if e.Budgets.MaxTimePerTask > 0 && time.Since(taskStart) > e.Budgets.MaxTimePerTask {
			return e.finish(StatusFailed, "task time budget exhausted", nil, totalCost, i-1, records, actions)
		}
		if e.Budgets.MaxCostPerTask > 0 && totalCost >= e.Budgets.MaxCostPerTask {
			return e.finish(StatusFailed, "task cost budget exhausted", nil, totalCost, i-1, records, actions)
		}
		if run.RunExhausted() {
			return e.finish(StatusFailed, "run budget exhausted", nil, totalCost, i-1, records, actions)
		}

		e.Hooks.invoke(func() { e.Hooks.OnIterationStart(t.ID, i) })

		prompt := e.buildPrompt(t, i, lastResultSummary)
		messages = append(messages, agent.Message{Role: agent.RoleUser, Content: prompt})

		resp, err := e.Provider.Chat(ctx, messages, agent.Tools())
		if err != nil {
			rec := Record{TaskID: t.ID, Iteration: i, Result: StatusFailed, Timestamp: time.Now(), Reason: err.Error()}
			records = append(records, rec)
			e.Hooks.invoke(func() { e.Hooks.OnIterationEnd(t.ID, i, StatusFailed) })
			return e.finish(StatusFailed, "agent error: "+err.Error(), nil, totalCost, i, records, actions)
		}
		messages = append(messages, agent.Message{Role: agent.RoleAssistant, Content: resp.Content})

		var completeOutcome, blockedOutcome agent.Outcome
		var sawComplete, sawBlocked bool
		for _, call := range resp.ToolCalls {
			out, action, outcome := agent.Dispatch(sb, call)
			actions = append(actions, action)
			e.Hooks.invoke(func() { e.Hooks.OnAction(t.ID, action) })
			messages = append(messages, agent.Message{Role: agent.RoleTool, Content: out, ToolCallID: call.ID})
			if outcome.Complete {
				completeOutcome = outcome
				sawComplete = true
			}
			if outcome.Blocked {
				blockedOutcome = outcome
				sawBlocked = true
			}
		}
		// task_complete always wins over task_blocked within one response,
		// regardless of which tool call came first.
		var iterOutcome agent.Outcome
		switch {
		case sawComplete:
			iterOutcome = completeOutcome
		case sawBlocked:
			iterOutcome = blockedOutcome
		}

		if resp.Usage != nil {
			cost := EstimateCost(e.Rates, resp.Usage.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
			totalCost += cost
			run.AddCost(cost)
		}

		status, reason := interpret(resp, iterOutcome)

		if status == StatusContinue {
			if crit := t.Completion; crit != nil {
				if ok, critReason := checkCompletion(sb, crit); ok {
					status = StatusComplete
					reason = critReason
				}
			}
		}

		rec := Record{TaskID: t.ID, Iteration: i, Result: status, Cost: totalCost, Timestamp: time.Now(), Reason: reason}
		records = append(records, rec)
		e.Hooks.invoke(func() { e.Hooks.OnIterationEnd(t.ID, i, status) })

		if status != StatusContinue {
			return e.finish(status, reason, iterOutcome.Artifacts, totalCost, i, records, actions)
		}
		lastResultSummary = resp.Content
	}

	return e.finish(StatusFailed, "max iterations reached without terminal outcome", nil, totalCost, maxIter, records, actions)
}

func (e *Engine) finish(status Status, reason string, artifacts []string, cost float64, iterations int, records []Record, actions []agent.Action) Outcome {
	return Outcome{
		Status:     status,
		Artifacts:  artifacts,
		Reason:     reason,
		Cost:       cost,
		Iterations: iterations,
		Records:    records,
		Actions:    actions,
	}
}

// interpret resolves the iteration's terminal signal: an explicit
// task_complete/task_blocked call outranks the provider's own finish reason.
func interpret(resp agent.Response, outcome agent.Outcome) (Status, string) {
	if outcome.Complete {
		return StatusComplete, outcome.Summary
	}
	if outcome.Blocked {
		return StatusBlocked, outcome.Blocker
	}
	if resp.FinishReason == agent.FinishError {
		return StatusFailed, "agent reported finish_reason=error"
	}
	return StatusContinue, ""
}

func (e *Engine) buildPrompt(t *task.Task, iteration int, previous string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task %s (%s): %s\n", t.ID, t.Type, t.Title)
	if t.Description != "" {
		fmt.Fprintf(&b, "%s\n", t.Description)
	}
	fmt.Fprintf(&b, "Iteration: %d\n", iteration)

	if e.LoadSpec != nil {
		if spec, err := e.LoadSpec(t); err == nil && spec != "" {
			fmt.Fprintf(&b, "\n--- spec ---\n%s\n", spec)
		}
	}
	if e.LoadInstructions != nil {
		if instr, err := e.LoadInstructions(t); err == nil && instr != "" {
			fmt.Fprintf(&b, "\n--- agent instructions ---\n%s\n", instr)
		}
	}
	if previous != "" {
		fmt.Fprintf(&b, "\n--- previous iteration result ---\n%s\n", previous)
	}
	return b.String()
}

func checkCompletion(sb *sandbox.Sandbox, c *task.Completion) (bool, string) {
	switch c.Kind {
	case "file_exists":
		if sb.Exists(c.Path) {
			return true, fmt.Sprintf("completion criterion satisfied: %s exists", c.Path)
		}
	case "command_succeeds":
		result, err := sb.Bash(c.Command)
		if err == nil && result.ExitCode == 0 {
			return true, fmt.Sprintf("completion criterion satisfied: %q exited 0", c.Command)
		}
	}
	return false, ""
}
