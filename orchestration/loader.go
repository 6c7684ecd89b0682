package orchestration

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrChildDepthExceeded is returned by LoadChild when resolving a
// child_runbook would exceed the parent's configured max_child_depth.
var ErrChildDepthExceeded = fmt.Errorf("child runbook depth exceeds max_child_depth")

// Loader parses Runbook YAML files from disk and resolves child_runbook
// path references against a search path, mirroring ruleset.Loader's
// resolve-then-cache shape.
type Loader struct {
	// SearchPaths are directories searched, in order, for a child
	// runbook's relative path when it isn't found relative to the
	// parent's own directory. Set from NewLoader's arguments; a runbook's
	// config.template_paths is not added to them.
	SearchPaths []string

	mu    sync.Mutex
	cache map[string]*Runbook
}

// NewLoader constructs a Loader searching the given directories for child
// runbook templates.
func NewLoader(searchPaths ...string) *Loader {
	return &Loader{SearchPaths: searchPaths, cache: make(map[string]*Runbook)}
}

// LoadFile parses and validates the runbook at path. This is the entry
// point for a top-level run; child runbooks are loaded via LoadChild so
// their relative path resolution and depth limit are enforced.
func (l *Loader) LoadFile(path string) (*Runbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read runbook %s: %w", path, err)
	}
	return parseRunbook(path, data)
}

// LoadChild resolves and loads a child_runbook's Path relative to baseDir
// (the directory containing the referencing runbook), falling back to
// SearchPaths. Results are cached by resolved absolute path so a template
// referenced by multiple artifacts (or multiple runs) is parsed once.
// depth is the child's nesting depth counting the root run as 1
// (DAGExecutor loads a child of the root at depth 2); LoadChild rejects loading once depth exceeds a positive
// maxChildDepth (the referencing runbook's config.max_child_depth).
func (l *Loader) LoadChild(baseDir, relPath string, depth, maxChildDepth int) (*Runbook, error) {
	if maxChildDepth > 0 && depth > maxChildDepth {
		return nil, fmt.Errorf("%w: depth %d exceeds limit %d for %q", ErrChildDepthExceeded, depth, maxChildDepth, relPath)
	}

	resolved, err := l.resolveChildPath(baseDir, relPath)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	if cached, ok := l.cache[resolved]; ok {
		l.mu.Unlock()
		return cached, nil
	}
	l.mu.Unlock()

	rb, err := l.LoadFile(resolved)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[resolved] = rb
	l.mu.Unlock()
	return rb, nil
}

func (l *Loader) resolveChildPath(baseDir, relPath string) (string, error) {
	if filepath.IsAbs(relPath) {
		if _, err := os.Stat(relPath); err == nil {
			return relPath, nil
		}
		return "", fmt.Errorf("child runbook %q: not found", relPath)
	}

	candidates := make([]string, 0, len(l.SearchPaths)+1)
	if baseDir != "" {
		candidates = append(candidates, baseDir)
	}
	candidates = append(candidates, l.SearchPaths...)

	for _, dir := range candidates {
		p := filepath.Join(dir, relPath)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("child runbook %q: not found relative to %q or in %d search path(s)", relPath, baseDir, len(l.SearchPaths))
}

// parseRunbook unmarshals data into a Runbook pre-populated with
// DefaultRunbookConfig so a partial (or absent) "config:" block only
// overrides the fields it names.
func parseRunbook(path string, data []byte) (*Runbook, error) {
	rb := Runbook{Config: DefaultRunbookConfig()}
	if err := yaml.Unmarshal(data, &rb); err != nil {
		return nil, fmt.Errorf("parse runbook %s: %w", path, err)
	}
	if err := rb.Validate(); err != nil {
		return nil, fmt.Errorf("runbook %s: %w", path, err)
	}
	return &rb, nil
}
