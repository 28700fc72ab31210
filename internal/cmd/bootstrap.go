package cmd

import (
	"os"
	"path/filepath"

	"github.com/daydemir/ralph/internal/agent"
	"github.com/daydemir/ralph/internal/config"
	"github.com/daydemir/ralph/internal/display"
	"github.com/daydemir/ralph/internal/gitops"
	"github.com/daydemir/ralph/internal/iteration"
	"github.com/daydemir/ralph/internal/learning"
	"github.com/daydemir/ralph/internal/mainloop"
	"github.com/daydemir/ralph/internal/metrics"
	"github.com/daydemir/ralph/internal/oplog"
	"github.com/daydemir/ralph/internal/tracker"

	_ "github.com/daydemir/ralph/internal/tracker/github"
	_ "github.com/daydemir/ralph/internal/tracker/jira"
	_ "github.com/daydemir/ralph/internal/tracker/linear"
)

// app bundles every collaborator a command needs, wired once from the
// loaded config and the current working directory.
type app struct {
	Config   *config.Config
	WorkDir  string
	Store    *oplog.Store
	Metrics  *metrics.Store
	Learning *learning.Log
	Git      gitops.Ops
	Log      display.Logger
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	workDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	stateDir := filepath.Join(workDir, "state")

	log := oplog.Open(filepath.Join(stateDir, "tasks.jsonl"))
	store := oplog.NewStore(log)
	ms := metrics.NewStore(filepath.Join(stateDir, "metrics.jsonl"), filepath.Join(stateDir, "progress.jsonl"))
	learningLog := learning.Open(filepath.Join(stateDir, "learning.jsonl"))
	git := gitops.New(workDir)

	var logger display.Logger = display.NewConsole(os.Stdout, display.LevelInfo)

	return &app{
		Config:   cfg,
		WorkDir:  workDir,
		Store:    store,
		Metrics:  ms,
		Learning: learningLog,
		Git:      git,
		Log:      logger,
	}, nil
}

// loop wires a mainloop.Loop from the app's collaborators, attaching a
// tracker if the config names one.
func (a *app) loop() (*mainloop.Loop, error) {
	engine := &iteration.Engine{
		Provider: agent.NewCLIInvoker(a.Config.Agent.BinaryPath),
		Rates:    iteration.DefaultRates(),
		Budgets:  a.Config.Budgets,
	}
	if ci, ok := engine.Provider.(*agent.CLIInvoker); ok && a.Config.Agent.Timeout.AsDuration() > 0 {
		ci.Timeout = a.Config.Agent.Timeout.AsDuration()
	}

	l := mainloop.New(a.Store, engine, a.Git, a.Metrics, a.Learning, a.Log, a.Config, a.WorkDir)

	if trackerCfg, ok := a.Config.TrackerRegistryConfig(); ok {
		tr, err := tracker.New(trackerCfg)
		if err != nil {
			return nil, err
		}
		l.Tracker = tr
		l.TrackerCfg = trackerCfg
		l.HasTracker = true
	}

	return l, nil
}
