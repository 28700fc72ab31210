package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	dryRun     bool
	taskFilter string
}

var flags globalFlags

// NewRootCommand builds the ralph command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "ralph",
		Short:   "Autonomous software-delivery orchestrator",
		Version: Version,
		Long: `Ralph is an autonomous software-delivery orchestrator. It drives a
bounded iterative agent against a sandboxed workspace,
one task at a time, selected from an append-only operation log and
reconciled against an external issue tracker.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "./ralph.config.json", "path to ralph.config.json")
	root.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "disable tracker pushes and improvement auto-apply")
	root.PersistentFlags().StringVar(&flags.taskFilter, "task", "", "run only the named task id")

	runCmd := NewRunCommand()
	root.RunE = runCmd.RunE
	root.AddCommand(runCmd)
	root.AddCommand(NewSyncCommand())
	root.AddCommand(NewStatusCommand())
	root.AddCommand(NewLearnCommand())
	root.AddCommand(NewDashboardCommand())
	root.AddCommand(NewDiscoverCommand())

	return root
}
