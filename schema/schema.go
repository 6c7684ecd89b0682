// Package schema models the JSON Schema documents that every Message
// flowing through a runbook is validated against. A Schema is identified
// by its (name, version) pair; the schema document itself is loaded lazily
// and cached, so constructing a Schema value is cheap and side-effect free.
package schema

import (
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema identifies a JSON Schema document by name and version. Two Schema
// values are equal iff their Name and Version match; the loaded document is
// not part of identity, so a Schema can be used as a map key or compared
// with == before its document has ever been loaded.
type Schema struct {
	Name    string
	Version string

	mu      sync.Mutex
	loader  Loader
	doc     *jsonschema.Schema
	docErr  error
	docOnce bool
}

// Loader resolves a Schema's JSON Schema document on demand. Implementations
// may read from disk, an embedded FS, or a remote registry.
type Loader interface {
	Load(name, version string) (*jsonschema.Schema, error)
}

// New constructs a Schema bound to the given loader. The document is not
// fetched until Document is first called.
func New(name, version string, loader Loader) *Schema {
	return &Schema{Name: name, Version: version, loader: loader}
}

// Key returns the "name@version" identity string used in logs and as a map
// key where a struct key is inconvenient.
func (s *Schema) Key() string {
	return fmt.Sprintf("%s@%s", s.Name, s.Version)
}

// Equal reports whether two schemas share the same (name, version) identity,
// regardless of whether either has loaded its document yet.
func (s *Schema) Equal(other *Schema) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Name == other.Name && s.Version == other.Version
}

// Document returns the parsed JSON Schema, loading and caching it on first
// use. Subsequent calls return the cached document or the cached error.
func (s *Schema) Document() (*jsonschema.Schema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docOnce {
		return s.doc, s.docErr
	}
	s.docOnce = true
	if s.loader == nil {
		s.docErr = fmt.Errorf("schema %s: no loader configured", s.Key())
		return nil, s.docErr
	}
	s.doc, s.docErr = s.loader.Load(s.Name, s.Version)
	return s.doc, s.docErr
}

// Validate validates the decoded JSON value v (as produced by
// json.Unmarshal into any) against the schema document.
func (s *Schema) Validate(v any) error {
	doc, err := s.Document()
	if err != nil {
		return fmt.Errorf("load schema %s: %w", s.Key(), err)
	}
	if err := doc.Validate(v); err != nil {
		return fmt.Errorf("schema %s: %w", s.Key(), err)
	}
	return nil
}
