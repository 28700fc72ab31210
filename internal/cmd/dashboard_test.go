package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardCommand_RendersAggregateWithNoHistory(t *testing.T) {
	withWorkDir(t)

	root := NewRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"dashboard", "--config", "does-not-exist.json"})

	require.NoError(t, root.Execute())
	assert.NotEmpty(t, buf.String())
}
