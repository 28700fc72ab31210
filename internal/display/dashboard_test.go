package display

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daydemir/ralph/internal/detect"
	"github.com/daydemir/ralph/internal/metrics"
)

func TestRenderAggregate_IncludesKeyFigures(t *testing.T) {
	agg := metrics.Aggregate{Period: "2026-07", TasksCompleted: 4, TasksCreated: 6, AvgIterations: 2.5, EstimateAccuracy: 0.75}
	summary := detect.Summary{TotalPatterns: 2, HighConfidence: 1, TopSuggestions: []string{"watch billing"}}

	out := RenderAggregate(agg, summary)
	assert.Contains(t, out, "2026-07")
	assert.Contains(t, out, "watch billing")
}
