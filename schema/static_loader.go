package schema

import (
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// StaticLoader is a Loader that resolves every (name, version) pair to the
// same pre-supplied JSON Schema document, compiled once on first use and
// cached thereafter. It is useful wherever a Schema needs a real,
// loader-backed document without standing up a search-path directory: unit
// tests that construct ad hoc Messages, and any internal wire schema
// intentionally left permissive (an empty object schema validates any
// value).
type StaticLoader struct {
	mu       sync.Mutex
	compiler *jsonschema.Compiler
	doc      any
	compiled *jsonschema.Schema
	err      error
	once     bool
}

// NewStaticLoader constructs a StaticLoader that compiles doc (an
// already-decoded JSON Schema document, e.g. map[string]any{"type": "object"}
// or map[string]any{} to accept anything) for every Load call.
func NewStaticLoader(doc any) *StaticLoader {
	return &StaticLoader{compiler: jsonschema.NewCompiler(), doc: doc}
}

// Load implements Loader. name and version are ignored beyond identifying
// the resource URL the document is compiled under.
func (l *StaticLoader) Load(name, version string) (*jsonschema.Schema, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.once {
		return l.compiled, l.err
	}
	l.once = true
	url := "static:///" + name + "/" + version
	if err := l.compiler.AddResource(url, l.doc); err != nil {
		l.err = err
		return nil, l.err
	}
	l.compiled, l.err = l.compiler.Compile(url)
	return l.compiled, l.err
}
