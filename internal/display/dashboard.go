package display

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/daydemir/ralph/internal/detect"
	"github.com/daydemir/ralph/internal/metrics"
)

// RenderAggregate renders a metrics.Aggregate and a pattern detect.Summary
// as a short markdown report, then re-renders headings and bold text with
// ANSI color for terminal display.
func RenderAggregate(agg metrics.Aggregate, summary detect.Summary) string {
	var md strings.Builder
	fmt.Fprintf(&md, "# Ralph Dashboard — %s\n\n", agg.Period)
	fmt.Fprintf(&md, "## Throughput\n\n")
	fmt.Fprintf(&md, "- completed: **%d**\n", agg.TasksCompleted)
	fmt.Fprintf(&md, "- created: **%d**\n", agg.TasksCreated)
	fmt.Fprintf(&md, "- failed: **%d**\n", agg.TasksFailed)
	fmt.Fprintf(&md, "- avg iterations: **%.1f**\n", agg.AvgIterations)
	fmt.Fprintf(&md, "- duration p50/p90: **%.1f / %.1f days**\n", agg.DurationP50, agg.DurationP90)
	fmt.Fprintf(&md, "- estimate accuracy: **%.0f%%**\n\n", agg.EstimateAccuracy*100)
	fmt.Fprintf(&md, "## Patterns\n\n")
	fmt.Fprintf(&md, "- total: **%d**, high-confidence: **%d**\n", summary.TotalPatterns, summary.HighConfidence)
	for _, s := range summary.TopSuggestions {
		fmt.Fprintf(&md, "- %s\n", s)
	}
	return ansiRender(md.String())
}

// ansiRender is a minimal goldmark-AST walk that upgrades headings and bold
// spans to ANSI color/weight; everything else passes through as plain text.
func ansiRender(source string) string {
	bytesrc := []byte(source)
	root := goldmark.New().Parser().Parse(text.NewReader(bytesrc))

	var out strings.Builder
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Heading:
			out.WriteString(color.New(color.Bold, color.FgCyan).Sprint(headingPrefix(v.Level)))
		case *ast.Text:
			out.Write(v.Segment.Value(bytesrc))
			if v.SoftLineBreak() || v.HardLineBreak() {
				out.WriteByte('\n')
			}
		case *ast.Emphasis:
			if v.Level == 2 {
				var b strings.Builder
				for c := v.FirstChild(); c != nil; c = c.NextSibling() {
					if t, ok := c.(*ast.Text); ok {
						b.Write(t.Segment.Value(bytesrc))
					}
				}
				out.WriteString(color.New(color.Bold).Sprint(b.String()))
				return ast.WalkSkipChildren, nil
			}
		case *ast.ListItem:
			out.WriteString("  - ")
		}
		return ast.WalkContinue, nil
	})
	return out.String()
}

func headingPrefix(level int) string {
	return strings.Repeat("#", level) + " "
}
