package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLearnCommand_NoHistoryYieldsNoPatterns(t *testing.T) {
	withWorkDir(t)

	root := NewRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"learn", "--config", "does-not-exist.json"})

	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "detected 0 pattern(s), 0 proposal(s)")
}

func TestLearnCommand_ApplyWithoutProposalsIsANoop(t *testing.T) {
	withWorkDir(t)

	root := NewRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"learn", "--apply", "--config", "does-not-exist.json"})

	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "detected 0 pattern(s), 0 proposal(s)")
	assert.NotContains(t, buf.String(), "applied")
}
