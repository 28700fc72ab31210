package improve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplice_AppendsWhenSectionAbsent(t *testing.T) {
	doc := "# Guide\n\nsome intro\n"
	got := Splice(doc, "Risk Areas", "## Risk Areas\n\nwatch billing\n")
	assert.Contains(t, got, "some intro")
	assert.Contains(t, got, "## Risk Areas")
	assert.Contains(t, got, "watch billing")
}

func TestSplice_ReplacesExistingSectionOnly(t *testing.T) {
	doc := "# Guide\n\n## Risk Areas\n\nold content\n\n## Other Section\n\nunrelated\n"
	got := Splice(doc, "Risk Areas", "## Risk Areas\n\nnew content\n")
	assert.Contains(t, got, "new content")
	assert.NotContains(t, got, "old content")
	assert.Contains(t, got, "## Other Section")
	assert.Contains(t, got, "unrelated")
}

func TestSplice_EmptyDocumentBecomesSection(t *testing.T) {
	got := Splice("", "Risk Areas", "## Risk Areas\n\nfresh\n")
	assert.Contains(t, got, "## Risk Areas")
	assert.Contains(t, got, "fresh")
}
