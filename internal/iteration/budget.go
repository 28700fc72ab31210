package iteration

import "time"

// ModelRate is the USD cost per million tokens for one model, dimensioned so
// that rate · tokens / 1,000,000 = dollars.
type ModelRate struct {
	InputPer1M  float64
	OutputPer1M float64
}

// DefaultRates is a conservative fallback cost table, used when a provider's
// usage report names a model this deployment hasn't configured pricing for.
func DefaultRates() map[string]ModelRate {
	return map[string]ModelRate{
		"default": {InputPer1M: 3.00, OutputPer1M: 15.00},
	}
}

// EstimateCost converts token usage into dollars using rates, falling back
// to the "default" entry when the model is unrecognized. Absent usage data
// yields zero cost — budgets stay enforceable only when usage is reported.
func EstimateCost(rates map[string]ModelRate, model string, inputTokens, outputTokens int64) float64 {
	if inputTokens == 0 && outputTokens == 0 {
		return 0
	}
	rate, ok := rates[model]
	if !ok {
		rate = rates["default"]
	}
	return (float64(inputTokens)/1_000_000)*rate.InputPer1M + (float64(outputTokens)/1_000_000)*rate.OutputPer1M
}

// Budgets bounds one run of the main loop and, within it, one task's
// iteration loop.
type Budgets struct {
	MaxIterationsPerTask int
	MaxTimePerTask       time.Duration
	MaxTimePerRun        time.Duration
	MaxCostPerTask       float64
	MaxCostPerRun        float64
	MaxRetries           int
}

// DefaultBudgets returns sane defaults for a single local run.
func DefaultBudgets() Budgets {
	return Budgets{
		MaxIterationsPerTask: 10,
		MaxTimePerTask:       30 * time.Minute,
		MaxTimePerRun:        4 * time.Hour,
		MaxCostPerTask:       5.00,
		MaxCostPerRun:        50.00,
		MaxRetries:           2,
	}
}

// RunBudgetTracker accumulates run-level cost and wall time across tasks.
type RunBudgetTracker struct {
	Budgets   Budgets
	startedAt time.Time
	runCost   float64
}

// NewRunBudgetTracker starts a tracker for one main-loop run.
func NewRunBudgetTracker(b Budgets) *RunBudgetTracker {
	return &RunBudgetTracker{Budgets: b, startedAt: time.Now()}
}

// RunTime returns elapsed wall time since the run started.
func (r *RunBudgetTracker) RunTime() time.Duration { return time.Since(r.startedAt) }

// RunCost returns accumulated run cost.
func (r *RunBudgetTracker) RunCost() float64 { return r.runCost }

// AddCost accumulates cost against the run total. Retried tasks' prior cost
// counts against the run cap per the pinned Open Question decision.
func (r *RunBudgetTracker) AddCost(cost float64) { r.runCost += cost }

// RunExhausted reports whether the run-level time or cost budget has been
// hit.
func (r *RunBudgetTracker) RunExhausted() bool {
	if r.Budgets.MaxTimePerRun > 0 && r.RunTime() > r.Budgets.MaxTimePerRun {
		return true
	}
	if r.Budgets.MaxCostPerRun > 0 && r.runCost >= r.Budgets.MaxCostPerRun {
		return true
	}
	return false
}
