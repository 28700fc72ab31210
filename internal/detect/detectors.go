package detect

import (
	"fmt"
	"math"
	"sort"

	"github.com/daydemir/ralph/internal/metrics"
	"github.com/daydemir/ralph/internal/task"
)

// DetectEstimationDrift flags systematic over- or under-estimation across
// completed tasks.
func DetectEstimationDrift(ctx DetectionContext) *DetectedPattern {
	var ratios []float64
	var ids []string
	for _, m := range ctx.Metrics {
		if m.Estimate > 0 && m.Actual > 0 {
			ratios = append(ratios, m.Actual/m.Estimate)
			ids = append(ids, m.TaskID)
		}
	}
	n := len(ratios)
	if n < ctx.minSamples() {
		return nil
	}
	avg := mean(ratios)
	if avg >= 0.7 && avg <= 1.5 {
		return nil
	}
	direction := "under-estimated"
	if avg < 1 {
		direction = "over-estimated"
	}
	return &DetectedPattern{
		Type:        PatternEstimationDrift,
		Confidence:  minF(float64(n)/10, 1) * 0.9,
		Description: fmt.Sprintf("tasks are systematically %s (avg actual/estimate ratio %.2f over %d samples)", direction, avg, n),
		Data:        map[string]any{"avgRatio": avg, "samples": n},
		Evidence:    ids,
		Suggestion:  "recalibrate estimation guidance using observed actual/estimate ratios",
	}
}

// DetectTaskClustering flags the largest aggregate grouping with enough
// tasks to be a meaningful cluster.
func DetectTaskClustering(ctx DetectionContext) *DetectedPattern {
	counts := map[string][]string{}
	for id, t := range ctx.Tasks {
		if t.Aggregate == "" {
			continue
		}
		counts[t.Aggregate] = append(counts[t.Aggregate], id)
	}
	agg, ids := largestBucket(counts, 3)
	if agg == "" {
		return nil
	}
	n := len(ids)
	return &DetectedPattern{
		Type:        PatternTaskClustering,
		Confidence:  minF(float64(n)/10, 1) * 0.8,
		Description: fmt.Sprintf("aggregate %q concentrates %d tasks", agg, n),
		Data:        map[string]any{"aggregate": agg, "count": n},
		Evidence:    ids,
		Suggestion:  fmt.Sprintf("consider decomposing work in %q or tracking it as its own initiative", agg),
	}
}

// DetectBlockingChain flags tasks that are themselves significant blockers
// for others.
func DetectBlockingChain(ctx DetectionContext) *DetectedPattern {
	var ids []string
	for id, t := range ctx.Tasks {
		if len(t.Blocks) >= 2 {
			ids = append(ids, id)
		}
	}
	if len(ids) < 2 {
		return nil
	}
	sort.Strings(ids)
	return &DetectedPattern{
		Type:        PatternBlockingChain,
		Confidence:  0.75,
		Description: fmt.Sprintf("%d tasks each block two or more others, forming dependency chains", len(ids)),
		Data:        map[string]any{"blockerCount": len(ids)},
		Evidence:    ids,
		Suggestion:  "prioritize the heaviest blockers to unblock the most downstream work",
	}
}

// DetectBugHotspot flags an aggregate area carrying a disproportionate
// share of bug-type tasks.
func DetectBugHotspot(ctx DetectionContext) *DetectedPattern {
	byAggregate := map[string][]string{}
	total := 0
	for id, t := range ctx.Tasks {
		if t.Type != task.TypeBug {
			continue
		}
		total++
		if t.Aggregate != "" {
			byAggregate[t.Aggregate] = append(byAggregate[t.Aggregate], id)
		}
	}
	if total < 3 {
		return nil
	}
	agg, ids := largestBucket(byAggregate, 2)
	if agg == "" {
		return nil
	}
	n := len(ids)
	return &DetectedPattern{
		Type:        PatternBugHotspot,
		Confidence:  minF(float64(n)/5, 1) * 0.85,
		Description: fmt.Sprintf("aggregate %q accounts for %d of %d bugs", agg, n, total),
		Data:        map[string]any{"aggregate": agg, "bugs": n, "totalBugs": total},
		Evidence:    ids,
		Suggestion:  fmt.Sprintf("audit %q for root causes before adding more features there", agg),
	}
}

// DetectIterationAnomaly flags tasks whose iteration count is an outlier
// relative to the rest of the sample.
func DetectIterationAnomaly(ctx DetectionContext) *DetectedPattern {
	if len(ctx.Metrics) < ctx.minSamples() {
		return nil
	}
	values := make([]float64, len(ctx.Metrics))
	for i, m := range ctx.Metrics {
		values[i] = float64(m.Iterations)
	}
	mu := mean(values)
	sigma := stddev(values, mu)
	threshold := mu + 2*sigma
	var ids []string
	for _, m := range ctx.Metrics {
		if float64(m.Iterations) > threshold {
			ids = append(ids, m.TaskID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return &DetectedPattern{
		Type:        PatternIterationAnomaly,
		Confidence:  0.8,
		Description: fmt.Sprintf("%d tasks required far more iterations than typical (mean %.1f, threshold %.1f)", len(ids), mu, threshold),
		Data:        map[string]any{"mean": mu, "stddev": sigma, "threshold": threshold},
		Evidence:    ids,
		Suggestion:  "review outlier tasks for scope creep or missing upfront context",
	}
}

// DetectVelocityTrend flags a significant change in completion throughput
// between the first and second halves of the observed periods.
func DetectVelocityTrend(ctx DetectionContext) *DetectedPattern {
	if len(ctx.Aggregates) < 2 {
		return nil
	}
	mid := len(ctx.Aggregates) / 2
	first := ctx.Aggregates[:mid]
	second := ctx.Aggregates[mid:]
	firstAvg := meanCompleted(first)
	secondAvg := meanCompleted(second)
	if firstAvg == 0 {
		return nil
	}
	change := (secondAvg - firstAvg) / firstAvg
	if math.Abs(change) < 0.2 {
		return nil
	}
	direction := "accelerating"
	if change < 0 {
		direction = "slowing"
	}
	return &DetectedPattern{
		Type:        PatternVelocityTrend,
		Confidence:  0.7,
		Description: fmt.Sprintf("completion velocity is %s (%.0f%% change across periods)", direction, change*100),
		Data:        map[string]any{"firstHalfAvg": firstAvg, "secondHalfAvg": secondAvg, "change": change},
		Suggestion:  "note the trend in velocity guidance for future planning",
	}
}

// DetectBottleneck flags a task type whose mean duration is far above the
// overall mean.
func DetectBottleneck(ctx DetectionContext) *DetectedPattern {
	if len(ctx.Metrics) < ctx.minSamples() {
		return nil
	}
	byType := map[task.Type][]float64{}
	var all []float64
	for _, m := range ctx.Metrics {
		byType[m.Type] = append(byType[m.Type], m.DurationDays)
		all = append(all, m.DurationDays)
	}
	overall := mean(all)
	if overall == 0 {
		return nil
	}
	var worstType task.Type
	worstMean := 0.0
	for t, durations := range byType {
		m := mean(durations)
		if m > worstMean {
			worstMean = m
			worstType = t
		}
	}
	if worstMean < 1.5*overall {
		return nil
	}
	ids := evidenceIDs(ctx.Metrics, func(m metrics.TaskMetric) bool { return m.Type == worstType })
	return &DetectedPattern{
		Type:        PatternBottleneck,
		Confidence:  minF(float64(len(ctx.Metrics))/5, 1) * 0.75,
		Description: fmt.Sprintf("%q tasks take %.1fx longer than the overall average", worstType, worstMean/overall),
		Data:        map[string]any{"type": worstType, "meanDuration": worstMean, "overallMean": overall},
		Evidence:    ids,
		Suggestion:  fmt.Sprintf("investigate why %q tasks consistently run long", worstType),
	}
}

var complexityOrder = []task.Complexity{
	task.ComplexityTrivial, task.ComplexitySimple, task.ComplexityModerate, task.ComplexityComplex,
}

// DetectComplexitySignal flags when mean duration doesn't increase
// monotonically with assigned complexity, suggesting complexity labels are
// miscalibrated.
func DetectComplexitySignal(ctx DetectionContext) *DetectedPattern {
	byComplexity := map[task.Complexity][]float64{}
	n := 0
	for _, m := range ctx.Metrics {
		if m.Complexity == "" {
			continue
		}
		byComplexity[m.Complexity] = append(byComplexity[m.Complexity], m.DurationDays)
		n++
	}
	if n < ctx.minSamples() {
		return nil
	}
	var means []float64
	var present []task.Complexity
	for _, c := range complexityOrder {
		if vals, ok := byComplexity[c]; ok {
			means = append(means, mean(vals))
			present = append(present, c)
		}
	}
	if len(means) < 2 {
		return nil
	}
	monotone := true
	for i := 1; i < len(means); i++ {
		if means[i] < means[i-1] {
			monotone = false
			break
		}
	}
	if monotone {
		return nil
	}
	return &DetectedPattern{
		Type:        PatternComplexitySignal,
		Confidence:  0.7,
		Description: "mean task duration does not increase monotonically with assigned complexity",
		Data:        map[string]any{"complexities": present, "meanDurations": means},
		Suggestion:  "revisit complexity assignment guidance; labels aren't tracking actual effort",
	}
}

// DetectTestGap flags an aggregate whose tasks are disproportionately
// non-test work.
func DetectTestGap(ctx DetectionContext) *DetectedPattern {
	type tally struct{ tests, total int }
	byAggregate := map[string]*tally{}
	ids := map[string][]string{}
	for id, t := range ctx.Tasks {
		if t.Aggregate == "" {
			continue
		}
		tl, ok := byAggregate[t.Aggregate]
		if !ok {
			tl = &tally{}
			byAggregate[t.Aggregate] = tl
		}
		tl.total++
		if t.Type == task.TypeTest {
			tl.tests++
		} else {
			ids[t.Aggregate] = append(ids[t.Aggregate], id)
		}
	}
	var worstAgg string
	var worstTally *tally
	for agg, tl := range byAggregate {
		nonTest := tl.total - tl.tests
		if nonTest < 3 {
			continue
		}
		ratio := float64(tl.tests) / float64(tl.total)
		if ratio < 0.2 && (worstTally == nil || tl.total > worstTally.total) {
			worstAgg, worstTally = agg, tl
		}
	}
	if worstAgg == "" {
		return nil
	}
	return &DetectedPattern{
		Type:        PatternTestGap,
		Confidence:  minF(float64(worstTally.total)/10, 1) * 0.8,
		Description: fmt.Sprintf("aggregate %q has only %d test tasks out of %d total", worstAgg, worstTally.tests, worstTally.total),
		Data:        map[string]any{"aggregate": worstAgg, "tests": worstTally.tests, "total": worstTally.total},
		Evidence:    ids[worstAgg],
		Suggestion:  fmt.Sprintf("add test coverage tasks for %q", worstAgg),
	}
}

// DetectHighChurn flags an aggregate whose average files-changed is far
// above the overall average.
func DetectHighChurn(ctx DetectionContext) *DetectedPattern {
	byAggregate := map[string][]float64{}
	ids := map[string][]string{}
	var all []float64
	for _, m := range ctx.Metrics {
		all = append(all, float64(m.FilesChanged))
		if m.Aggregate == "" {
			continue
		}
		byAggregate[m.Aggregate] = append(byAggregate[m.Aggregate], float64(m.FilesChanged))
		ids[m.Aggregate] = append(ids[m.Aggregate], m.TaskID)
	}
	overall := mean(all)
	if overall == 0 {
		return nil
	}
	var worstAgg string
	worstAvg := 0.0
	for agg, vals := range byAggregate {
		m := mean(vals)
		if m > worstAvg {
			worstAvg, worstAgg = m, agg
		}
	}
	if worstAgg == "" || worstAvg < 1.5*overall {
		return nil
	}
	n := len(byAggregate[worstAgg])
	return &DetectedPattern{
		Type:        PatternHighChurn,
		Confidence:  minF(float64(n)/10, 1) * 0.75,
		Description: fmt.Sprintf("aggregate %q changes %.1fx more files per task than average", worstAgg, worstAvg/overall),
		Data:        map[string]any{"aggregate": worstAgg, "avgFilesChanged": worstAvg, "overallAvg": overall},
		Evidence:    ids[worstAgg],
		Suggestion:  fmt.Sprintf("look for missing abstractions driving churn in %q", worstAgg),
	}
}

// DetectCoupling flags a pair of areas (aggregate, domain, or tag) that
// repeatedly co-occur on the same tasks.
func DetectCoupling(ctx DetectionContext) *DetectedPattern {
	pairCounts := map[[2]string][]string{}
	for id, t := range ctx.Tasks {
		areas := areasOf(t)
		for i := 0; i < len(areas); i++ {
			for j := i + 1; j < len(areas); j++ {
				pair := sortedPair(areas[i], areas[j])
				pairCounts[pair] = append(pairCounts[pair], id)
			}
		}
	}
	var bestPair [2]string
	var bestIDs []string
	for pair, ids := range pairCounts {
		if len(ids) >= 3 && len(ids) > len(bestIDs) {
			bestPair, bestIDs = pair, ids
		}
	}
	if len(bestIDs) == 0 {
		return nil
	}
	n := len(bestIDs)
	return &DetectedPattern{
		Type:        PatternCoupling,
		Confidence:  minF(float64(n)/8, 1) * 0.8,
		Description: fmt.Sprintf("%q and %q co-occur on %d tasks", bestPair[0], bestPair[1], n),
		Data:        map[string]any{"areas": bestPair, "count": n},
		Evidence:    bestIDs,
		Suggestion:  fmt.Sprintf("consider whether %q and %q should be tracked as one area", bestPair[0], bestPair[1]),
	}
}

func areasOf(t *task.Task) []string {
	var areas []string
	if t.Aggregate != "" {
		areas = append(areas, t.Aggregate)
	}
	if t.Domain != "" {
		areas = append(areas, t.Domain)
	}
	areas = append(areas, t.Tags...)
	return areas
}

func sortedPair(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func largestBucket(buckets map[string][]string, minSize int) (string, []string) {
	var bestKey string
	var bestIDs []string
	for k, ids := range buckets {
		if len(ids) >= minSize && len(ids) > len(bestIDs) {
			bestKey, bestIDs = k, ids
		}
	}
	sort.Strings(bestIDs)
	return bestKey, bestIDs
}

func meanCompleted(aggs []metrics.Aggregate) float64 {
	if len(aggs) == 0 {
		return 0
	}
	sum := 0
	for _, a := range aggs {
		sum += a.TasksCompleted
	}
	return float64(sum) / float64(len(aggs))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64, mu float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sumSq float64
	for _, v := range values {
		d := v - mu
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}
