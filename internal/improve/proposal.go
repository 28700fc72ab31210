// Package improve turns detected patterns into concrete edits to Ralph's
// own guidance documents, and applies accepted edits on a dedicated branch.
package improve

import (
	"fmt"
	"strings"
	"time"

	"github.com/daydemir/ralph/internal/detect"
)

// Priority is a proposal's urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Status tracks a proposal through its lifecycle.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApplied  Status = "applied"
	StatusRejected Status = "rejected"
	StatusError    Status = "error"
)

// Kind names the shape of edit a proposal makes.
type Kind string

const (
	KindUpdateEstimate     Kind = "update_estimate"
	KindAddWarning         Kind = "add_warning"
	KindAddConvention      Kind = "add_convention"
	KindRefineInstructions Kind = "refine_instructions"
	KindAddPattern         Kind = "add_pattern"
	KindAddSection         Kind = "add_section"
)

// Proposal is a pending (or resolved) edit to a guidance document.
type Proposal struct {
	ID          string    `json:"id"`
	Target      string    `json:"target"`
	Section     string    `json:"section,omitempty"`
	Type        Kind      `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	Rationale   string    `json:"rationale"`
	Evidence    []string  `json:"evidence,omitempty"`
	Confidence  float64   `json:"confidence"`
	Priority    Priority  `json:"priority"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// mapping describes where a pattern type's proposal lands and how its
// priority is chosen.
type mapping struct {
	target   string
	section  string
	kind     Kind
	priority func(confidence float64) Priority
}

var highIfConfident = func(confidence float64) Priority {
	if confidence > 0.8 {
		return PriorityHigh
	}
	return PriorityMedium
}

var fixed = func(p Priority) func(float64) Priority {
	return func(float64) Priority { return p }
}

var mappings = map[detect.PatternType]mapping{
	detect.PatternEstimationDrift:  {"guidance/AGENTS.md", "Estimation Guidance", KindUpdateEstimate, highIfConfident},
	detect.PatternBugHotspot:       {"guidance/AGENTS.md", "Risk Areas", KindAddWarning, fixed(PriorityHigh)},
	detect.PatternBlockingChain:    {"guidance/AGENTS.md", "Task Prioritization", KindAddConvention, fixed(PriorityMedium)},
	detect.PatternIterationAnomaly: {"agents/task-discovery.md", "Complexity Assessment", KindRefineInstructions, fixed(PriorityMedium)},
	detect.PatternBottleneck:       {"guidance/AGENTS.md", "Known Bottlenecks", KindAddPattern, fixed(PriorityMedium)},
	detect.PatternVelocityTrend:    {"guidance/AGENTS.md", "Velocity Notes", KindAddSection, fixed(PriorityLow)},
	detect.PatternTestGap:         {"guidance/AGENTS.md", "Test Coverage", KindAddWarning, fixed(PriorityMedium)},
	detect.PatternHighChurn:        {"guidance/AGENTS.md", "Churn Hotspots", KindAddPattern, fixed(PriorityMedium)},
	detect.PatternCoupling:         {"guidance/AGENTS.md", "Coupled Areas", KindAddSection, fixed(PriorityLow)},
	detect.PatternTaskClustering:   {"guidance/AGENTS.md", "Work Concentration", KindAddPattern, fixed(PriorityLow)},
	detect.PatternComplexitySignal: {"guidance/AGENTS.md", "Complexity Calibration", KindRefineInstructions, fixed(PriorityMedium)},
}

// Generator assigns sequential IMPROVE-<n> IDs across a run.
type Generator struct {
	next int
}

// NewGenerator starts a generator at IMPROVE-1.
func NewGenerator() *Generator {
	return &Generator{next: 1}
}

func (g *Generator) nextID() string {
	id := fmt.Sprintf("IMPROVE-%d", g.next)
	g.next++
	return id
}

// FromPattern converts one detected pattern into at most one proposal.
func (g *Generator) FromPattern(p detect.DetectedPattern, now time.Time) *Proposal {
	m, ok := mappings[p.Type]
	if !ok {
		return nil
	}
	title := fmt.Sprintf("%s: %s", strings.ReplaceAll(string(p.Type), "_", " "), p.Description)
	return &Proposal{
		ID:          g.nextID(),
		Target:      m.target,
		Section:     m.section,
		Type:        m.kind,
		Title:       title,
		Description: p.Description,
		Content:     renderSection(m.section, p),
		Rationale:   p.Suggestion,
		Evidence:    p.Evidence,
		Confidence:  p.Confidence,
		Priority:    m.priority(p.Confidence),
		Status:      StatusPending,
		CreatedAt:   now,
	}
}

// FromLowEstimationAccuracy emits a high-priority proposal when aggregate
// estimation accuracy falls below 50%.
func (g *Generator) FromLowEstimationAccuracy(accuracy float64, now time.Time) *Proposal {
	if accuracy >= 0.5 {
		return nil
	}
	section := "Estimation Guidance"
	body := fmt.Sprintf("Estimation accuracy is %.0f%%, below the 50%% floor. Estimates should be treated as low-confidence until this improves.", accuracy*100)
	return &Proposal{
		ID:          g.nextID(),
		Target:      "guidance/AGENTS.md",
		Section:     section,
		Type:        KindAddWarning,
		Title:       "Estimation accuracy has fallen below 50%",
		Description: body,
		Content:     fmt.Sprintf("## %s\n\n%s\n", section, body),
		Rationale:   "low estimation accuracy undermines budget planning",
		Confidence:  1,
		Priority:    PriorityHigh,
		Status:      StatusPending,
		CreatedAt:   now,
	}
}

// FromAggregateMetrics emits the proposals driven by rollup figures rather
// than any single detected pattern: low estimation accuracy and high
// blocker rate.
func (g *Generator) FromAggregateMetrics(estimateAccuracy, blockerRate float64, now time.Time) []*Proposal {
	var out []*Proposal
	if p := g.FromLowEstimationAccuracy(estimateAccuracy, now); p != nil {
		out = append(out, p)
	}
	if p := g.FromHighBlockerRate(blockerRate, now); p != nil {
		out = append(out, p)
	}
	return out
}

// FromHighBlockerRate emits a medium-priority proposal when the blocker
// rate across completed tasks exceeds 30%.
func (g *Generator) FromHighBlockerRate(rate float64, now time.Time) *Proposal {
	if rate <= 0.3 {
		return nil
	}
	section := "Task Prioritization"
	body := fmt.Sprintf("%.0f%% of completed tasks were blocked at some point. Favor resolving blockers before starting new work.", rate*100)
	return &Proposal{
		ID:          g.nextID(),
		Target:      "guidance/AGENTS.md",
		Section:     section,
		Type:        KindAddConvention,
		Title:       "High blocker rate across recent tasks",
		Description: body,
		Content:     fmt.Sprintf("## %s\n\n%s\n", section, body),
		Rationale:   "blockers compound when left unresolved",
		Confidence:  1,
		Priority:    PriorityMedium,
		Status:      StatusPending,
		CreatedAt:   now,
	}
}

func renderSection(section string, p detect.DetectedPattern) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", section)
	fmt.Fprintf(&b, "%s\n\n", p.Description)
	if p.Suggestion != "" {
		fmt.Fprintf(&b, "%s\n", p.Suggestion)
	}
	if len(p.Evidence) > 0 {
		fmt.Fprintf(&b, "\nObserved in: %s\n", strings.Join(p.Evidence, ", "))
	}
	return b.String()
}
