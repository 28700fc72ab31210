package sandbox

import "strings"

// Policy governs which paths and commands a sandbox will act on.
type Policy struct {
	// PathAllow is a prefix allowlist, workspace-relative. Empty means
	// allow everything within the workspace.
	PathAllow []string
	// PathDeny is a prefix denylist; deny always wins over allow.
	PathDeny []string

	// CommandAllow/CommandDeny match by substring or prefix against the
	// full command string; deny always wins.
	CommandAllow []string
	CommandDeny  []string

	// MaxCommands caps the number of bash invocations per sandbox. Zero
	// means unlimited.
	MaxCommands int
	// MaxFileSize is an advisory cap on staged file content, in bytes.
	// Zero means unlimited.
	MaxFileSize int64

	// CacheEnabled toggles ReadFile's mtime-validated read cache. Defaults
	// to off (the zero value) so a Policy built without opting in reads
	// disk fresh every time; set true to skip re-reads of unchanged files.
	CacheEnabled bool
}

// AllowPath reports whether p, a workspace-relative path, is permitted.
func (p Policy) AllowPath(rel string) bool {
	for _, deny := range p.PathDeny {
		if strings.HasPrefix(rel, deny) {
			return false
		}
	}
	if len(p.PathAllow) == 0 {
		return true
	}
	for _, allow := range p.PathAllow {
		if strings.HasPrefix(rel, allow) {
			return true
		}
	}
	return false
}

// AllowCommand reports whether cmd is permitted to execute.
func (p Policy) AllowCommand(cmd string) bool {
	for _, deny := range p.CommandDeny {
		if strings.Contains(cmd, deny) {
			return false
		}
	}
	if len(p.CommandAllow) == 0 {
		return true
	}
	for _, allow := range p.CommandAllow {
		if strings.Contains(cmd, allow) {
			return true
		}
	}
	return false
}
