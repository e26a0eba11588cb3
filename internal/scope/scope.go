// Package scope resolves which working-directory partitions an operation
// should see. Every process record lives under the absolute directory it was
// started from; callers narrow queries to the current directory, to its
// subtree, or to every partition in the registry.
package scope

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Scope selects which registry partitions a query inspects.
type Scope string

const (
	// ScopeCurrent limits a query to the caller's working directory.
	ScopeCurrent Scope = "current"
	// ScopeSubtree includes the caller's working directory and every
	// directory beneath it.
	ScopeSubtree Scope = "subtree"
	// ScopeAll inspects every partition in the registry.
	ScopeAll Scope = "all"
)

// DefaultScope is used when a caller does not specify one: the caller's
// directory and everything beneath it.
const DefaultScope = ScopeSubtree

// EnvWorkdir overrides the directory used as the default partition and as
// the base for resolving relative directory arguments.
const EnvWorkdir = "WARDEN_WORKDIR"

var allScopes = []Scope{ScopeCurrent, ScopeSubtree, ScopeAll}

var scopeSet = func() map[Scope]struct{} {
	set := make(map[Scope]struct{}, len(allScopes))
	for _, scope := range allScopes {
		set[scope] = struct{}{}
	}
	return set
}()

// AllScopes returns the known scopes in display order.
func AllScopes() []Scope {
	cp := make([]Scope, len(allScopes))
	copy(cp, allScopes)
	return cp
}

// ParseScope converts a string into a known Scope.
func ParseScope(value string) (Scope, bool) {
	normalized := Scope(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := scopeSet[normalized]
	return normalized, ok
}

// Matches reports whether a partition directory falls inside the scope
// anchored at base. Both paths must be absolute.
func (s Scope) Matches(base, partition string) bool {
	switch s {
	case ScopeAll:
		return true
	case ScopeSubtree:
		return Within(base, partition)
	default:
		return filepath.Clean(base) == filepath.Clean(partition)
	}
}

// Within reports whether candidate equals base or sits beneath it. The check
// is separator aware: /foo2 is not within /foo.
func Within(base, candidate string) bool {
	base = filepath.Clean(base)
	candidate = filepath.Clean(candidate)
	if base == candidate {
		return true
	}
	if base == string(filepath.Separator) {
		return strings.HasPrefix(candidate, base)
	}
	return strings.HasPrefix(candidate, base+string(filepath.Separator))
}

// BaseDir returns the directory that anchors scoped queries. The environment
// override wins over the process working directory.
func BaseDir() (string, error) {
	if value, ok := os.LookupEnv(EnvWorkdir); ok {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			abs, err := filepath.Abs(trimmed)
			if err != nil {
				return "", fmt.Errorf("resolve %s: %w", EnvWorkdir, err)
			}
			return filepath.Clean(abs), nil
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determine working directory: %w", err)
	}
	return filepath.Clean(wd), nil
}

// ResolveDir turns a user supplied directory argument into the absolute
// partition key. Relative paths resolve against BaseDir, and an empty
// argument selects BaseDir itself.
func ResolveDir(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" && filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed), nil
	}
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	if trimmed == "" {
		return base, nil
	}
	return filepath.Join(base, trimmed), nil
}
