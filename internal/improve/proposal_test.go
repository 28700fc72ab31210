package improve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daydemir/ralph/internal/detect"
)

func TestGenerator_FromPattern_AssignsSequentialIDs(t *testing.T) {
	g := NewGenerator()
	now := time.Now()

	p1 := g.FromPattern(detect.DetectedPattern{Type: detect.PatternBugHotspot, Confidence: 0.9, Description: "x"}, now)
	p2 := g.FromPattern(detect.DetectedPattern{Type: detect.PatternBlockingChain, Confidence: 0.75, Description: "y"}, now)

	require.NotNil(t, p1)
	require.NotNil(t, p2)
	assert.Equal(t, "IMPROVE-1", p1.ID)
	assert.Equal(t, "IMPROVE-2", p2.ID)
	assert.Equal(t, PriorityHigh, p1.Priority)
	assert.Equal(t, PriorityMedium, p2.Priority)
}

func TestGenerator_FromPattern_EstimationDriftPriorityDependsOnConfidence(t *testing.T) {
	g := NewGenerator()
	now := time.Now()

	high := g.FromPattern(detect.DetectedPattern{Type: detect.PatternEstimationDrift, Confidence: 0.9}, now)
	medium := g.FromPattern(detect.DetectedPattern{Type: detect.PatternEstimationDrift, Confidence: 0.7}, now)

	assert.Equal(t, PriorityHigh, high.Priority)
	assert.Equal(t, PriorityMedium, medium.Priority)
}

func TestGenerator_FromLowEstimationAccuracy(t *testing.T) {
	g := NewGenerator()
	now := time.Now()

	assert.Nil(t, g.FromLowEstimationAccuracy(0.6, now))
	p := g.FromLowEstimationAccuracy(0.3, now)
	require.NotNil(t, p)
	assert.Equal(t, PriorityHigh, p.Priority)
}

func TestGenerator_FromHighBlockerRate(t *testing.T) {
	g := NewGenerator()
	now := time.Now()

	assert.Nil(t, g.FromHighBlockerRate(0.2, now))
	p := g.FromHighBlockerRate(0.4, now)
	require.NotNil(t, p)
	assert.Equal(t, PriorityMedium, p.Priority)
}

func TestGenerator_FromAggregateMetrics_EmitsBothWhenBothThresholdsCrossed(t *testing.T) {
	g := NewGenerator()
	now := time.Now()

	proposals := g.FromAggregateMetrics(0.3, 0.4, now)
	require.Len(t, proposals, 2)
	assert.Equal(t, PriorityHigh, proposals[0].Priority)
	assert.Equal(t, PriorityMedium, proposals[1].Priority)
}

func TestGenerator_FromAggregateMetrics_EmitsNoneWhenWithinThresholds(t *testing.T) {
	g := NewGenerator()
	now := time.Now()

	assert.Empty(t, g.FromAggregateMetrics(0.9, 0.1, now))
}
