// Package mainloop glues the task store, selector, iteration engine,
// sandbox, tracker, metrics, and self-improvement packages into the single
// control loop described by the orchestration contract: pull tracker
// updates, select a task, iterate it to a terminal outcome, commit or
// rollback, record metrics, mine patterns, and push the result back out.
package mainloop

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/daydemir/ralph/internal/config"
	"github.com/daydemir/ralph/internal/detect"
	"github.com/daydemir/ralph/internal/display"
	"github.com/daydemir/ralph/internal/gitops"
	"github.com/daydemir/ralph/internal/improve"
	"github.com/daydemir/ralph/internal/iteration"
	"github.com/daydemir/ralph/internal/learning"
	"github.com/daydemir/ralph/internal/metrics"
	"github.com/daydemir/ralph/internal/oplog"
	"github.com/daydemir/ralph/internal/sandbox"
	"github.com/daydemir/ralph/internal/selector"
	"github.com/daydemir/ralph/internal/task"
	"github.com/daydemir/ralph/internal/tracker"
)

// Loop is one fully-wired run of the orchestrator.
type Loop struct {
	Store     *oplog.Store
	Engine    *iteration.Engine
	Git       gitops.Ops
	Tracker   tracker.Tracker
	TrackerCfg tracker.Config
	HasTracker bool
	Metrics   *metrics.Store
	Learning  *learning.Log
	Log       display.Logger
	Config    *config.Config
	WorkDir   string

	improveGen *improve.Generator
}

// New wires a Loop from its already-constructed collaborators.
func New(store *oplog.Store, engine *iteration.Engine, git gitops.Ops, ms *metrics.Store, learningLog *learning.Log, log display.Logger, cfg *config.Config, workDir string) *Loop {
	return &Loop{
		Store:      store,
		Engine:     engine,
		Git:        git,
		Metrics:    ms,
		Learning:   learningLog,
		Log:        log,
		Config:     cfg,
		WorkDir:    workDir,
		improveGen: improve.NewGenerator(),
	}
}

// RunResult summarizes one invocation of Run.
type RunResult struct {
	TasksProcessed int
	TasksSucceeded int
	TasksFailed    int
}

// Run executes the main loop until maxTasksPerRun, a time/cost cap, or task
// exhaustion stops it. taskFilter pins to one task ID (empty for none);
// dryRun disables tracker pull and push and improvement auto-apply, but
// selection, iteration and pattern detection still run.
func (l *Loop) Run(ctx context.Context, taskFilter string, dryRun bool) (RunResult, error) {
	opts := l.Config.Run
	maxTasks := opts.MaxTasksPerRun
	if taskFilter != "" {
		maxTasks = 1
	}

	run := iteration.NewRunBudgetTracker(l.Config.Budgets)
	result := RunResult{}

	for result.TasksProcessed < maxTasks {
		if opts.MaxTimePerRun.AsDuration() > 0 && run.RunTime() > opts.MaxTimePerRun.AsDuration() {
			l.Log.Info("run time budget exhausted, stopping")
			break
		}
		if opts.MaxCostPerRun > 0 && run.RunCost() >= opts.MaxCostPerRun {
			l.Log.Info("run cost budget exhausted, stopping")
			break
		}

		l.gitWatcherTick(ctx)

		tasks, err := l.Store.Project()
		if err != nil {
			return result, fmt.Errorf("project tasks: %w", err)
		}

		if l.HasTracker && l.TrackerCfg.AutoPull && !dryRun {
			l.pullTracker(ctx, tasks)
			tasks, err = l.Store.Project()
			if err != nil {
				return result, fmt.Errorf("reproject after pull: %w", err)
			}
		}

		l.checkGuidanceFiles()

		t := selector.Select(tasks, taskFilter)
		if t == nil {
			break
		}

		l.Log.Task(t.ID, "selected (status=%s)", t.Status)
		if err := l.markStatus(t.ID, task.StatusInProgress, nil); err != nil {
			return result, fmt.Errorf("mark %s in_progress: %w", t.ID, err)
		}

		sb := sandbox.New(l.WorkDir, l.Config.Sandbox, 0)
		outcome, decision := l.runWithRetries(ctx, t, sb, run, opts)

		success := outcome.Status == iteration.StatusComplete
		if success {
			if _, err := sb.Flush(); err != nil {
				l.Log.Error("flush sandbox for %s: %v", t.ID, err)
			}
			now := time.Now()
			if err := l.markStatus(t.ID, task.StatusDone, &now); err != nil {
				l.Log.Error("mark %s done: %v", t.ID, err)
			}
			if opts.AutoCommit {
				if err := l.Git.Add(ctx); err != nil {
					l.Log.Warn("add for %s: %v", t.ID, err)
				}
				if _, err := l.Git.Commit(ctx, fmt.Sprintf("%s%s: %s", opts.CommitPrefix, t.ID, t.Title)); err != nil {
					l.Log.Warn("commit for %s: %v", t.ID, err)
				}
			}
			result.TasksSucceeded++
		} else {
			sb.Rollback()
			l.markBlocked(t.ID, decision.BlockedBy)
			result.TasksFailed++
		}

		l.recordMetrics(ctx, t, outcome, sb)

		if l.Config.Run.LearningEnabled {
			l.runLearning(ctx, dryRun)
		}

		if l.HasTracker && !dryRun {
			l.pushTracker(ctx, t.ID, success)
		}

		result.TasksProcessed++
		if decision.StopRun {
			break
		}
	}

	return result, nil
}

// runWithRetries drives the iteration engine, re-entering on a "retry"
// onFailure decision with a fresh sandbox view each time.
func (l *Loop) runWithRetries(ctx context.Context, t *task.Task, sb *sandbox.Sandbox, run *iteration.RunBudgetTracker, opts config.RunOptions) (iteration.Outcome, iteration.Decision) {
	attempt := 0
	for {
		outcome := l.Engine.Run(ctx, t, sb, run)
		if outcome.Status == iteration.StatusComplete {
			return outcome, iteration.Decision{}
		}
		decision := iteration.Decide(opts.OnFailure, attempt, opts.MaxRetries, outcome)
		if !decision.Retry {
			return outcome, decision
		}
		sb.Rollback()
		attempt++
	}
}

func (l *Loop) markStatus(id string, status task.Status, completedAt *time.Time) error {
	op := task.Operation{
		Timestamp: time.Now(),
		Kind:      task.OpUpdate,
		ID:        id,
		Changes:   &task.Changes{Status: &status, CompletedAt: completedAt},
	}
	_, _, err := l.Store.Propose(op, oplog.Resilient)
	return err
}

func (l *Loop) markBlocked(id, reason string) {
	status := task.StatusBlocked
	op := task.Operation{
		Timestamp: time.Now(),
		Kind:      task.OpUpdate,
		ID:        id,
		Changes:   &task.Changes{Status: &status},
	}
	if _, _, err := l.Store.Propose(op, oplog.Resilient); err != nil {
		l.Log.Error("mark %s blocked: %v", id, err)
	}
	if reason != "" {
		l.Log.Task(id, "blocked: %s", reason)
	}
}

func (l *Loop) recordMetrics(ctx context.Context, t *task.Task, outcome iteration.Outcome, sb *sandbox.Sandbox) {
	for _, r := range outcome.Records {
		if err := l.Metrics.AppendProgress(r); err != nil {
			l.Log.Error("append progress for %s: %v", t.ID, err)
		}
	}
	if outcome.Status != iteration.StatusComplete {
		return
	}
	diff, err := l.Git.DiffStats(ctx)
	if err != nil {
		l.Log.Warn("diff stats for %s: %v", t.ID, err)
	}
	blockers := len(t.BlockedBy)
	if err := l.Metrics.RecordTask(t, diff.FilesChanged, diff.LinesChanged, blockers); err != nil {
		l.Log.Error("record metrics for %s: %v", t.ID, err)
	}
}

func (l *Loop) runLearning(ctx context.Context, dryRun bool) {
	tasks, err := l.Store.Project()
	if err != nil {
		l.Log.Error("project for learning: %v", err)
		return
	}
	records, err := l.Metrics.AllMetrics()
	if err != nil {
		l.Log.Error("read metrics for learning: %v", err)
		return
	}
	ctxDetect := detect.DetectionContext{Tasks: tasks, Metrics: records}
	patterns := detect.Run(ctxDetect, time.Now())
	if l.Learning != nil {
		if err := l.Learning.RecordPatterns(patterns); err != nil {
			l.Log.Error("record patterns: %v", err)
		}
	}

	var proposals []*improve.Proposal
	now := time.Now()
	for _, p := range patterns {
		if proposal := l.improveGen.FromPattern(p, now); proposal != nil {
			proposals = append(proposals, proposal)
		}
	}
	if len(records) > 0 {
		agg := metrics.ComputeAggregate(metrics.CurrentMonthPeriod(now), tasks, records, 0)
		proposals = append(proposals, l.improveGen.FromAggregateMetrics(agg.EstimateAccuracy, metrics.BlockerRate(records), now)...)
	}
	if len(proposals) == 0 {
		return
	}
	if l.Learning != nil {
		if err := l.Learning.RecordProposals(proposals); err != nil {
			l.Log.Error("record proposals: %v", err)
		}
	}

	if l.Config.Run.AutoApply && !dryRun {
		results, events := improve.Apply(ctx, l.Git, l.WorkDir, proposals, now)
		if l.Learning != nil {
			if err := l.Learning.RecordApplied(events, now); err != nil {
				l.Log.Error("record applied: %v", err)
			}
		}
		for _, r := range results {
			if r.Applied {
				l.Log.Info("applied %s", r.ProposalID)
			} else {
				l.Log.Warn("failed to apply %s: %s", r.ProposalID, r.Error)
			}
		}
	}
}

// guidancePaths are the documents improvement proposals target; the
// "read guidance files" step only needs to know whether they exist.
var guidancePaths = []string{
	filepath.Join("guidance", "AGENTS.md"),
	filepath.Join("agents", "task-discovery.md"),
}

func (l *Loop) checkGuidanceFiles() {
	for _, p := range guidancePaths {
		if _, err := os.Stat(filepath.Join(l.WorkDir, p)); err != nil {
			l.Log.Debug("guidance file absent: %s", p)
		}
	}
}

// gitWatcherTick does best-effort external-commit status inference: a
// commit whose subject starts with "<taskID>: " for a task not already
// terminal is taken as a signal that the task finished outside the loop.
func (l *Loop) gitWatcherTick(ctx context.Context) {
	watcher, ok := l.Git.(gitops.CommitWatcher)
	if !ok {
		return
	}
	subjects, err := watcher.RecentCommitSubjects(ctx, 20)
	if err != nil {
		l.Log.Debug("git watcher tick: %v", err)
		return
	}
	tasks, err := l.Store.Project()
	if err != nil {
		return
	}
	for _, t := range tasks {
		if t.Status.IsTerminal() || t.Status == task.StatusInProgress {
			continue
		}
		prefix := t.ID + ":"
		for _, subject := range subjects {
			if strings.HasPrefix(subject, prefix) {
				now := time.Now()
				if err := l.markStatus(t.ID, task.StatusDone, &now); err != nil {
					l.Log.Error("git watcher mark %s done: %v", t.ID, err)
				} else {
					l.Log.Task(t.ID, "marked done from external commit: %s", subject)
				}
				break
			}
		}
	}
}

func (l *Loop) pullTracker(ctx context.Context, tasks map[string]*task.Task) {
	ops, errs := tracker.Pull(ctx, l.Tracker, l.TrackerCfg, tasks)
	for _, err := range errs {
		l.Log.Warn("tracker pull: %v", err)
	}
	for _, op := range ops {
		if _, _, err := l.Store.Propose(op, oplog.Resilient); err != nil {
			l.Log.Error("apply pulled update: %v", err)
		}
	}
}

func (l *Loop) pushTracker(ctx context.Context, taskID string, success bool) {
	tasks, err := l.Store.Project()
	if err != nil {
		l.Log.Error("project for push: %v", err)
		return
	}
	t, ok := tasks[taskID]
	if !ok {
		return
	}
	ops, err := tracker.Push(ctx, l.Tracker, l.TrackerCfg, t, success)
	if err != nil {
		l.Log.Warn("tracker push for %s: %v", taskID, err)
	}
	for _, op := range ops {
		if _, _, err := l.Store.Propose(op, oplog.Resilient); err != nil {
			l.Log.Error("apply push-derived op: %v", err)
		}
	}
}
