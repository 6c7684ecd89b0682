package ruleset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// supportedProviders lists the ruleset URI providers this loader can
// resolve. Only "local" (filesystem-backed, bundled or user-supplied rule
// YAML files) is implemented; remote providers are a future extension.
var supportedProviders = map[string]struct{}{"local": {}}

// URI is a parsed "{provider}/{name}/{version}" ruleset reference.
type URI struct {
	Provider string
	Name     string
	Version  string
}

// ParseURI splits a ruleset reference of the form "local/pii-detection/1.0.0"
// into its three components.
func ParseURI(raw string) (URI, error) {
	parts := strings.Split(raw, "/")
	if len(parts) != 3 {
		return URI{}, fmt.Errorf("ruleset uri %q: expected provider/name/version", raw)
	}
	u := URI{Provider: parts[0], Name: parts[1], Version: parts[2]}
	if _, ok := supportedProviders[u.Provider]; !ok {
		return URI{}, fmt.Errorf("ruleset uri %q: unsupported provider %q", raw, u.Provider)
	}
	if u.Name == "" || u.Version == "" {
		return URI{}, fmt.Errorf("ruleset uri %q: name and version must not be empty", raw)
	}
	return u, nil
}

// Loader resolves ruleset URIs to parsed, validated Ruleset values and
// caches them by URI so repeated references within a run do not re-parse
// the same YAML file.
type Loader struct {
	// SearchPaths are directories searched, in order, for
	// "<name>/<version>.yaml" files under the "local" provider.
	SearchPaths []string

	mu                sync.Mutex
	detectionCache     map[string]*Ruleset[*DetectionRule]
	classificationCache map[string]*Ruleset[*ClassificationRule]
}

// NewLoader constructs a Loader searching the given directories.
func NewLoader(searchPaths ...string) *Loader {
	return &Loader{
		SearchPaths:         searchPaths,
		detectionCache:      make(map[string]*Ruleset[*DetectionRule]),
		classificationCache: make(map[string]*Ruleset[*ClassificationRule]),
	}
}

func (l *Loader) resolvePath(u URI) (string, error) {
	for _, dir := range l.SearchPaths {
		p := filepath.Join(dir, u.Name, u.Version+".yaml")
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("ruleset %s/%s/%s: not found in any of %d search paths", u.Provider, u.Name, u.Version, len(l.SearchPaths))
}

// LoadDetectionRuleset resolves a ruleset URI to a validated
// Ruleset[*DetectionRule], caching by URI.
func (l *Loader) LoadDetectionRuleset(rawURI string) (*Ruleset[*DetectionRule], error) {
	u, err := ParseURI(rawURI)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	if cached, ok := l.detectionCache[rawURI]; ok {
		l.mu.Unlock()
		return cached, nil
	}
	l.mu.Unlock()

	path, err := l.resolvePath(u)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ruleset %s: %w", path, err)
	}
	rs := &Ruleset[*DetectionRule]{}
	if err := yaml.Unmarshal(data, rs); err != nil {
		return nil, fmt.Errorf("parse ruleset %s: %w", path, err)
	}
	if err := rs.Validate(); err != nil {
		return nil, fmt.Errorf("ruleset %s: %w", path, err)
	}

	l.mu.Lock()
	l.detectionCache[rawURI] = rs
	l.mu.Unlock()
	return rs, nil
}

// LoadClassificationRuleset resolves a ruleset URI to a validated
// Ruleset[*ClassificationRule], caching by URI.
func (l *Loader) LoadClassificationRuleset(rawURI string) (*Ruleset[*ClassificationRule], error) {
	u, err := ParseURI(rawURI)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	if cached, ok := l.classificationCache[rawURI]; ok {
		l.mu.Unlock()
		return cached, nil
	}
	l.mu.Unlock()

	path, err := l.resolvePath(u)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ruleset %s: %w", path, err)
	}
	rs := &Ruleset[*ClassificationRule]{}
	if err := yaml.Unmarshal(data, rs); err != nil {
		return nil, fmt.Errorf("parse ruleset %s: %w", path, err)
	}
	if err := rs.Validate(); err != nil {
		return nil, fmt.Errorf("ruleset %s: %w", path, err)
	}

	l.mu.Lock()
	l.classificationCache[rawURI] = rs
	l.mu.Unlock()
	return rs, nil
}
