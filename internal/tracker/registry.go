package tracker

import (
	"fmt"
	"strings"
	"sync"

	"github.com/daydemir/ralph/internal/task"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register installs factory under kind at process startup. Adapter packages
// call this from their init(); reads after registration are lock-free in
// spirit (the mutex here only guards the rare concurrent-test case).
func Register(kind string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = factory
}

// New looks up the factory for kind and constructs a Tracker from cfg.
func New(cfg Config) (Tracker, error) {
	registryMu.RLock()
	factory, ok := registry[cfg.Kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("tracker: no adapter registered for kind %q", cfg.Kind)
	}
	return factory(cfg)
}

// ReverseStatus maps a tracker's native status string back to a Ralph
// status, via a fallback chain: explicit reverseStatusMap, then an
// inverted statusMap (case-insensitive), then keyword heuristics, then
// pending.
func ReverseStatus(cfg Config, remoteStatus string) task.Status {
	if cfg.ReverseStatusMap != nil {
		if s, ok := cfg.ReverseStatusMap[remoteStatus]; ok {
			return s
		}
	}

	lower := strings.ToLower(remoteStatus)
	for ralphStatus, trackerStatus := range cfg.StatusMap {
		if strings.ToLower(trackerStatus) == lower {
			return ralphStatus
		}
	}

	switch {
	case containsAny(lower, "done", "closed", "resolved"):
		return task.StatusDone
	case containsAny(lower, "progress", "active"):
		return task.StatusInProgress
	case containsAny(lower, "review"):
		return task.StatusReview
	case containsAny(lower, "blocked"):
		return task.StatusBlocked
	default:
		return task.StatusPending
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
