package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/daydemir/ralph/internal/task"
)

// NewStatusCommand prints task counts by status and the in-progress set.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print task counts and in-progress tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags.configPath)
			if err != nil {
				return err
			}
			tasks, err := a.Store.Project()
			if err != nil {
				return err
			}

			counts := map[task.Status]int{}
			var inProgress []*task.Task
			for _, t := range tasks {
				counts[t.Status]++
				if t.Status == task.StatusInProgress {
					inProgress = append(inProgress, t)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "total: %d\n", len(tasks))
			for _, s := range []task.Status{
				task.StatusDiscovered, task.StatusPending, task.StatusInProgress,
				task.StatusBlocked, task.StatusReview, task.StatusDone, task.StatusCancelled,
			} {
				fmt.Fprintf(out, "  %-12s %d\n", s, counts[s])
			}

			sort.Slice(inProgress, func(i, j int) bool { return inProgress[i].ID < inProgress[j].ID })
			if len(inProgress) > 0 {
				fmt.Fprintln(out, "in progress:")
				for _, t := range inProgress {
					fmt.Fprintf(out, "  %s %s\n", t.ID, t.Title)
				}
			}
			return nil
		},
	}
}
