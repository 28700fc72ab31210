package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/daydemir/ralph/internal/detect"
	"github.com/daydemir/ralph/internal/improve"
	"github.com/daydemir/ralph/internal/metrics"
)

// NewLearnCommand runs metrics aggregation and pattern detection, proposing
// improvements and optionally applying them, without running any tasks.
func NewLearnCommand() *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Run detectors over accumulated metrics and propose improvements",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags.configPath)
			if err != nil {
				return err
			}
			tasks, err := a.Store.Project()
			if err != nil {
				return err
			}
			records, err := a.Metrics.AllMetrics()
			if err != nil {
				return err
			}

			patterns := detect.Run(detect.DetectionContext{Tasks: tasks, Metrics: records}, time.Now())
			if err := a.Learning.RecordPatterns(patterns); err != nil {
				a.Log.Error("record patterns: %v", err)
			}

			gen := improve.NewGenerator()
			now := time.Now()
			var proposals []*improve.Proposal
			for _, p := range patterns {
				if proposal := gen.FromPattern(p, now); proposal != nil {
					proposals = append(proposals, proposal)
				}
			}
			if len(records) > 0 {
				agg, err := a.Metrics.CurrentAggregate(metrics.CurrentMonthPeriod(now), tasks, 0)
				if err != nil {
					return err
				}
				proposals = append(proposals, gen.FromAggregateMetrics(agg.EstimateAccuracy, metrics.BlockerRate(records), now)...)
			}

			if err := a.Learning.RecordProposals(proposals); err != nil {
				a.Log.Error("record proposals: %v", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "detected %d pattern(s), %d proposal(s)\n", len(patterns), len(proposals))
			for _, p := range proposals {
				fmt.Fprintf(out, "  %s [%s] %s\n", p.ID, p.Priority, p.Title)
			}

			if apply && !flags.dryRun && len(proposals) > 0 {
				results, events := improve.Apply(cmd.Context(), a.Git, a.WorkDir, proposals, now)
				if err := a.Learning.RecordApplied(events, now); err != nil {
					a.Log.Error("record applied: %v", err)
				}
				for _, r := range results {
					status := "ok"
					if !r.Applied {
						status = "error: " + r.Error
					}
					fmt.Fprintf(out, "  applied %s: %s\n", r.ProposalID, status)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "apply proposals on a ralph/learn-<timestamp> branch")
	return cmd
}
