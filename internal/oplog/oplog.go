// Package oplog is the append-only journal of task operations: the single
// source of truth the projector folds into task state.
package oplog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/daydemir/ralph/internal/fsutil"
	"github.com/daydemir/ralph/internal/task"
)

// Log is a crash-safe, append-only JSON-line file of task.Operation records.
type Log struct {
	path string
}

// Open returns a Log bound to path. The file need not exist yet — a missing
// file is treated as an empty log by ReadAll.
func Open(path string) *Log {
	return &Log{path: path}
}

// Append serializes op as one line and appends it to the log file under an
// exclusive lock. Either the full line lands, or the file is untouched.
func (l *Log) Append(op task.Operation) error {
	line, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("marshal operation: %w", err)
	}
	if err := fsutil.AppendLine(l.path, line); err != nil {
		return fmt.Errorf("append to %s: %w", l.path, err)
	}
	return nil
}

// ReadAll returns every operation in file order. Blank lines and lines that
// fail to parse are skipped without failing the read, preserving forward
// compatibility with logs written by a newer version of Ralph.
func (l *Log) ReadAll() ([]task.Operation, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	defer f.Close()

	var ops []task.Operation
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var op task.Operation
		if err := json.Unmarshal(line, &op); err != nil {
			continue
		}
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}
	return ops, nil
}

// Project reads the whole log and folds it into current task state.
func (l *Log) Project() (map[string]*task.Task, error) {
	ops, err := l.ReadAll()
	if err != nil {
		return nil, err
	}
	return task.Project(ops), nil
}
