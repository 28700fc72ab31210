package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDiscoverCommand is a stub: task discovery from plan documents is out
// of scope for this core (it is defined only as the task.Discoverer
// contract). A real deployment wires a concrete discoverer here.
func NewDiscoverCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "discover <path>",
		Short: "Extract tasks from a plan document (no discoverer registered)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("discover: no task.Discoverer is registered in this build")
		},
	}
}
