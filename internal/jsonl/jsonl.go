// Package jsonl is the shared append/read-all implementation behind the
// progress, metrics, and learning logs — each a parallel JSON-line file with
// the same crash-safety and forward-compatibility contract as the operation
// log, but a different record shape.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/daydemir/ralph/internal/fsutil"
)

// Log is a crash-safe, append-only JSON-line file of records of type T.
type Log[T any] struct {
	path string
}

// Open returns a Log bound to path. A missing file is an empty log.
func Open[T any](path string) *Log[T] {
	return &Log[T]{path: path}
}

// Append serializes record as one line and appends it under an exclusive
// lock.
func (l *Log[T]) Append(record T) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := fsutil.AppendLine(l.path, line); err != nil {
		return fmt.Errorf("append to %s: %w", l.path, err)
	}
	return nil
}

// ReadAll returns every record in file order, skipping blank and
// unparseable lines.
func (l *Log[T]) ReadAll() ([]T, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	defer f.Close()

	var records []T
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var record T
		if err := json.Unmarshal(line, &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}
	return records, nil
}
