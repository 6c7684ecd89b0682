package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// schemasFS embeds every built-in schema document shipped with the binary,
// so a fresh install resolves wct's own wire schemas (filesystem_scan,
// detection_findings, classification_findings, ...) without any on-disk
// schema directory being registered.
//
//go:embed schemas/*/*.json
var schemasFS embed.FS

// embeddedLoader resolves (name, version) pairs against schemasFS. It
// compiles and caches each document the first time it is requested.
type embeddedLoader struct {
	mu       sync.Mutex
	compiler *jsonschema.Compiler
	cache    map[string]*jsonschema.Schema
}

func newEmbeddedLoader() *embeddedLoader {
	return &embeddedLoader{compiler: jsonschema.NewCompiler(), cache: make(map[string]*jsonschema.Schema)}
}

// Load implements Loader.
func (l *embeddedLoader) Load(name, version string) (*jsonschema.Schema, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := name + "@" + version
	if compiled, ok := l.cache[key]; ok {
		return compiled, nil
	}

	path := "schemas/" + name + "/" + version + ".json"
	raw, err := schemasFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema %s@%s not embedded: %w", name, version, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode embedded schema %s@%s: %w", name, version, err)
	}
	url := "embedded:///" + path
	if err := l.compiler.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("register embedded schema %s@%s: %w", name, version, err)
	}
	compiled, err := l.compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile embedded schema %s@%s: %w", name, version, err)
	}
	l.cache[key] = compiled
	return compiled, nil
}

// chainLoader tries primary first and falls back to secondary, so
// directories registered via RegisterSearchPath can override a built-in schema
// by shadowing its name/version, while every name neither overrides still
// resolves against the embedded default.
type chainLoader struct {
	primary   Loader
	secondary Loader
}

// Load implements Loader.
func (l *chainLoader) Load(name, version string) (*jsonschema.Schema, error) {
	compiled, err := l.primary.Load(name, version)
	if err == nil {
		return compiled, nil
	}
	return l.secondary.Load(name, version)
}
