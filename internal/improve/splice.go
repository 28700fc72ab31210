package improve

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Splice replaces the `## <section>` block in doc with content if present,
// or appends content as a new section at the end otherwise. doc may be
// empty (the target file didn't exist).
func Splice(doc, section, content string) string {
	if strings.TrimSpace(doc) == "" {
		return strings.TrimRight(content, "\n") + "\n"
	}

	source := []byte(doc)
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(source))

	start, end, found := findSection(root, source, section)
	if !found {
		trimmed := strings.TrimRight(doc, "\n")
		return trimmed + "\n\n" + strings.TrimRight(content, "\n") + "\n"
	}

	before := string(source[:start])
	after := string(source[end:])
	spliced := before + strings.TrimRight(content, "\n") + "\n" + after
	return spliced
}

// findSection locates the byte range [start, end) of the "## section"
// heading and everything up to (but not including) the next heading at the
// same or shallower level, or the document's end.
func findSection(root ast.Node, source []byte, section string) (start, end int, found bool) {
	var headings []ast.Node
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if h, ok := n.(*ast.Heading); ok {
				headings = append(headings, h)
			}
		}
		return ast.WalkContinue, nil
	})

	for i, n := range headings {
		h := n.(*ast.Heading)
		if headingText(h, source) != section {
			continue
		}
		start = headingStart(h, source)
		end = len(source)
		for j := i + 1; j < len(headings); j++ {
			next := headings[j].(*ast.Heading)
			if next.Level <= h.Level {
				end = headingStart(next, source)
				break
			}
		}
		return start, end, true
	}
	return 0, 0, false
}

func headingText(h *ast.Heading, source []byte) string {
	var b strings.Builder
	for c := h.FirstChild(); c != nil; c = c.NextSibling() {
		if seg, ok := c.(*ast.Text); ok {
			b.Write(seg.Segment.Value(source))
		}
	}
	return strings.TrimSpace(b.String())
}

// headingStart finds the byte offset where the heading's own line begins by
// scanning backward from its first content segment to the preceding
// newline. Goldmark's heading nodes don't carry lines for the "## " marker
// itself.
func headingStart(h *ast.Heading, source []byte) int {
	lineStart := firstSegmentStart(h, source)
	if lineStart < 0 {
		return 0
	}
	idx := strings.LastIndexByte(string(source[:lineStart]), '\n')
	return idx + 1
}

func firstSegmentStart(n ast.Node, source []byte) int {
	if seg, ok := n.(*ast.Text); ok {
		return seg.Segment.Start
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if start := firstSegmentStart(c, source); start >= 0 {
			return start
		}
	}
	return -1
}
