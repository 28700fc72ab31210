package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRunCommand is the default command: run the main loop to completion or
// exhaustion.
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the main loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags.configPath)
			if err != nil {
				return err
			}
			loop, err := a.loop()
			if err != nil {
				return err
			}

			result, err := loop.Run(cmd.Context(), flags.taskFilter, flags.dryRun)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "processed=%d succeeded=%d failed=%d\n",
				result.TasksProcessed, result.TasksSucceeded, result.TasksFailed)
			if result.TasksProcessed > 0 && result.TasksSucceeded == 0 {
				return fmt.Errorf("all %d processed tasks failed", result.TasksProcessed)
			}
			return nil
		},
	}
}
