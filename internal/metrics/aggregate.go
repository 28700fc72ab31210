package metrics

import (
	"sort"
	"time"

	"github.com/daydemir/ralph/internal/task"
)

// Aggregate is a period rollup (e.g. "current month") over TaskMetric
// records plus the task map's created/failed counts.
type Aggregate struct {
	Period             string             `json:"period"`
	TasksCompleted     int                `json:"tasksCompleted"`
	TasksCreated       int                `json:"tasksCreated"`
	TasksFailed        int                `json:"tasksFailed"`
	DurationP50        float64            `json:"durationP50"`
	DurationP90        float64            `json:"durationP90"`
	AvgIterations      float64            `json:"avgIterations"`
	TotalCommits       int                `json:"totalCommits"`
	TotalFilesChanged  int                `json:"totalFilesChanged"`
	EstimateAccuracy   float64            `json:"estimateAccuracy"`
	BlockerCount       int                `json:"blockerCount"`
	BugCount           int                `json:"bugCount"`
	ByType             map[task.Type]int  `json:"byType"`
	ByAggregate        map[string]int     `json:"byAggregate"`
	ByComplexity       map[task.Complexity]int `json:"byComplexity"`
}

// PeriodBounds parses a "YYYY-MM" period label (as produced by
// CurrentMonthPeriod) into the half-open [start, end) range it names. ok is
// false for any period label that isn't a calendar month, in which case
// callers should treat the period as unbounded rather than filter by it.
func PeriodBounds(period string) (start, end time.Time, ok bool) {
	start, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, start.AddDate(0, 1, 0), true
}

func inPeriod(t time.Time, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

// ComputeAggregate rolls up metrics for one period. tasks is the full
// projected task map, used to count created/failed; commits is the number
// of commits made during the period. When period parses as a calendar
// month, tasks are filtered by CreatedAt and metrics records by
// CompletedAt so the rollup reflects only that month's activity.
func ComputeAggregate(period string, tasks map[string]*task.Task, metricsRecords []TaskMetric, commits int) Aggregate {
	agg := Aggregate{
		Period:       period,
		ByType:       map[task.Type]int{},
		ByAggregate:  map[string]int{},
		ByComplexity: map[task.Complexity]int{},
		TotalCommits: commits,
	}

	start, end, bounded := PeriodBounds(period)

	for _, t := range tasks {
		if bounded && !inPeriod(t.CreatedAt, start, end) {
			continue
		}
		agg.TasksCreated++
		if t.Status == task.StatusCancelled {
			agg.TasksFailed++
		}
	}

	durations := make([]float64, 0, len(metricsRecords))
	var iterSum int
	var accurate int
	var counted int
	for _, m := range metricsRecords {
		if bounded && !inPeriod(m.CompletedAt, start, end) {
			continue
		}
		counted++
		agg.TasksCompleted++
		durations = append(durations, m.DurationDays)
		iterSum += m.Iterations
		agg.TotalFilesChanged += m.FilesChanged
		agg.BlockerCount += m.Blockers
		agg.ByType[m.Type]++
		if m.Aggregate != "" {
			agg.ByAggregate[m.Aggregate]++
		}
		if m.Complexity != "" {
			agg.ByComplexity[m.Complexity]++
		}
		if m.Type == task.TypeBug {
			agg.BugCount++
		}
		if m.Estimate > 0 {
			ratio := m.Actual / m.Estimate
			if ratio >= 0.8 && ratio <= 1.2 {
				accurate++
			}
		}
	}

	if counted > 0 {
		agg.AvgIterations = float64(iterSum) / float64(counted)
		agg.EstimateAccuracy = float64(accurate) / float64(counted)
	}
	agg.DurationP50 = percentile(durations, 0.5)
	agg.DurationP90 = percentile(durations, 0.9)

	return agg
}

// BlockerRate returns the fraction of records that recorded at least one
// blocker, the aggregate figure FromHighBlockerRate warns on.
func BlockerRate(records []TaskMetric) float64 {
	if len(records) == 0 {
		return 0
	}
	var blocked int
	for _, m := range records {
		if m.Blockers > 0 {
			blocked++
		}
	}
	return float64(blocked) / float64(len(records))
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

// CurrentMonthPeriod returns the label ComputeAggregate uses for "this
// calendar month", e.g. "2026-07".
func CurrentMonthPeriod(now time.Time) string {
	return now.Format("2006-01")
}
