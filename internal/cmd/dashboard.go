package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/daydemir/ralph/internal/detect"
	"github.com/daydemir/ralph/internal/display"
	"github.com/daydemir/ralph/internal/gitops"
	"github.com/daydemir/ralph/internal/metrics"
	"github.com/daydemir/ralph/internal/metrics/cache"
)

// NewDashboardCommand renders the current period's aggregate metrics and
// pattern summary as an ANSI-colored terminal report.
func NewDashboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Render the aggregated learning summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags.configPath)
			if err != nil {
				return err
			}
			tasks, err := a.Store.Project()
			if err != nil {
				return err
			}
			period := time.Now().Format("2006-01")
			commits := 0
			if counter, ok := a.Git.(gitops.PeriodCommitCounter); ok {
				if since, until, ok := metrics.PeriodBounds(period); ok {
					if n, err := counter.CommitCount(cmd.Context(), since, until); err != nil {
						a.Log.Debug("commit count: %v", err)
					} else {
						commits = n
					}
				}
			}
			agg, err := a.Metrics.CurrentAggregate(period, tasks, commits)
			if err != nil {
				return err
			}
			records, err := a.Metrics.AllMetrics()
			if err != nil {
				return err
			}
			patterns := detect.Run(detect.DetectionContext{Tasks: tasks, Metrics: records}, time.Now())
			summary := detect.Summarize(patterns)

			fmt.Fprint(cmd.OutOrStdout(), display.RenderAggregate(agg, summary))

			idx, err := cache.Open(filepath.Join(a.WorkDir, "state", "metrics-cache.db"))
			if err != nil {
				a.Log.Debug("metrics cache unavailable: %v", err)
				return nil
			}
			defer idx.Close()
			if err := idx.Rebuild(records); err != nil {
				a.Log.Debug("metrics cache rebuild: %v", err)
				return nil
			}
			byType, err := idx.CountByType()
			if err != nil {
				a.Log.Debug("metrics cache query: %v", err)
				return nil
			}
			if len(byType) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "\n## By type (cached)\n\n")
				types := make([]string, 0, len(byType))
				for t := range byType {
					types = append(types, t)
				}
				sort.Strings(types)
				for _, t := range types {
					fmt.Fprintf(cmd.OutOrStdout(), "- %s: **%d**\n", t, byType[t])
				}
			}

			avgByAggregate, err := idx.AvgIterationsByAggregate()
			if err != nil {
				a.Log.Debug("metrics cache avg iterations: %v", err)
				return nil
			}
			if len(avgByAggregate) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "\n## Avg iterations by aggregate (cached)\n\n")
				aggregates := make([]string, 0, len(avgByAggregate))
				for agg := range avgByAggregate {
					aggregates = append(aggregates, agg)
				}
				sort.Strings(aggregates)
				for _, agg := range aggregates {
					fmt.Fprintf(cmd.OutOrStdout(), "- %s: **%.1f**\n", agg, avgByAggregate[agg])
				}
			}
			return nil
		},
	}
}
