// Package display is the leveled, colorized console output used by the CLI
// front end and threaded through the main loop's hooks.
package display

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Level is a log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger is the narrow interface mainloop and its collaborators log
// through, so tests can substitute a silent or capturing implementation.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	Task(taskID, msg string, args ...any)
}

// Console is the default Logger, writing leveled, colorized lines to an
// io.Writer. Color is auto-disabled when the writer isn't a terminal.
type Console struct {
	out      io.Writer
	minLevel Level
	color    bool
}

// NewConsole builds a Console writing to out at minLevel. Color is enabled
// only when out is a TTY.
func NewConsole(out io.Writer, minLevel Level) *Console {
	useColor := false
	if f, ok := out.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Console{out: out, minLevel: minLevel, color: useColor}
}

var (
	debugColor = color.New(color.FgHiBlack)
	infoColor  = color.New(color.FgCyan)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
	taskColor  = color.New(color.FgGreen)
)

func (c *Console) line(level Level, label string, col *color.Color, format string, args ...any) {
	if level < c.minLevel {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if c.color {
		fmt.Fprintf(c.out, "%s %s\n", col.Sprint(label), msg)
		return
	}
	fmt.Fprintf(c.out, "%s %s\n", label, msg)
}

func (c *Console) Debug(format string, args ...any) { c.line(LevelDebug, "[debug]", debugColor, format, args...) }
func (c *Console) Info(format string, args ...any)  { c.line(LevelInfo, "[info] ", infoColor, format, args...) }
func (c *Console) Warn(format string, args ...any)  { c.line(LevelWarn, "[warn] ", warnColor, format, args...) }
func (c *Console) Error(format string, args ...any) { c.line(LevelError, "[error]", errorColor, format, args...) }

// Task logs a task-scoped message at info level, prefixed with the task ID.
func (c *Console) Task(taskID, msg string, args ...any) {
	c.line(LevelInfo, fmt.Sprintf("[%s]", taskID), taskColor, msg, args...)
}

// Noop discards everything; useful in tests that don't care about output.
type Noop struct{}

func (Noop) Debug(string, ...any)        {}
func (Noop) Info(string, ...any)         {}
func (Noop) Warn(string, ...any)         {}
func (Noop) Error(string, ...any)        {}
func (Noop) Task(string, string, ...any) {}
