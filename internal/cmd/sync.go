package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daydemir/ralph/internal/oplog"
	"github.com/daydemir/ralph/internal/task"
	"github.com/daydemir/ralph/internal/tracker"
)

// NewSyncCommand reconciles every task against the tracker: pull remote
// status first, then push local status for every linked task.
func NewSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Pull tracker state, then push local task state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags.configPath)
			if err != nil {
				return err
			}
			trackerCfg, ok := a.Config.TrackerRegistryConfig()
			if !ok {
				return fmt.Errorf("sync: no tracker configured")
			}
			// sync is an explicit pull request: it overrides the main
			// loop's autoPull gate, which only governs per-tick pulls.
			trackerCfg.AutoPull = true
			tr, err := tracker.New(trackerCfg)
			if err != nil {
				return err
			}

			tasks, err := a.Store.Project()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var failed int

			pullOps, pullErrs := tracker.Pull(ctx, tr, trackerCfg, tasks)
			for _, perr := range pullErrs {
				a.Log.Warn("pull: %v", perr)
				failed++
			}
			for _, op := range pullOps {
				if _, _, err := a.Store.Propose(op, oplog.Resilient); err != nil {
					a.Log.Error("apply pulled update: %v", err)
					failed++
				}
			}

			tasks, err = a.Store.Project()
			if err != nil {
				return err
			}
			for _, t := range tasks {
				if t.ExternalID == "" && !trackerCfg.AutoCreate {
					continue
				}
				ops, err := tracker.Push(ctx, tr, trackerCfg, t, t.Status == task.StatusDone)
				if err != nil {
					a.Log.Warn("push %s: %v", t.ID, err)
					failed++
					continue
				}
				for _, op := range ops {
					if _, _, err := a.Store.Propose(op, oplog.Resilient); err != nil {
						a.Log.Error("apply push-derived op: %v", err)
						failed++
					}
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "sync complete, %d error(s)\n", failed)
			if failed > 0 {
				return fmt.Errorf("sync finished with %d error(s)", failed)
			}
			return nil
		},
	}
}
