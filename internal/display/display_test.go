package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsole_FiltersBelowMinLevel(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, LevelWarn)
	c.Info("should not appear")
	c.Warn("should appear")
	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "should appear")
}

func TestConsole_NonTTYWriterIsUncolored(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, LevelInfo)
	c.Task("RALPH-1", "starting")
	out := buf.String()
	assert.True(t, strings.Contains(out, "RALPH-1"))
	assert.False(t, strings.Contains(out, "\x1b["))
}

func TestNoop_DiscardsEverything(t *testing.T) {
	var l Noop
	l.Info("x")
	l.Task("RALPH-1", "y")
}
