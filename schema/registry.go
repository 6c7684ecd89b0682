package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// Registry is a process-wide catalogue of schema search paths and a lazily
// constructed Loader built from them. It mirrors a classmethod-based
// singleton: callers register search paths with RegisterSearchPath, then
// ask for schemas by name/version; a name/version found on no search path
// resolves against the embedded built-in schemas.
//
// Registry is safe for concurrent use. Snapshot/Restore exist so tests can
// register temporary search paths and undo the registration afterwards
// without leaking state into other tests.
type Registry struct {
	mu          sync.Mutex
	searchPaths []string
	loader      Loader
}

// Default is the process-wide Registry instance used by package-level
// helpers (Get, RegisterSearchPath).
var Default = NewRegistry()

// NewRegistry constructs an empty Registry. Most callers should use the
// package-level Default registry; NewRegistry exists for isolated tests.
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterSearchPath adds a directory to the registry's schema search path.
// Directories registered later are searched first (last-registered wins on
// name collisions), matching the convention of later-loaded plugins
// overriding earlier schema definitions. Registering a new path invalidates
// the cached loader so the next Get call picks it up.
func (r *Registry) RegisterSearchPath(dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searchPaths = append([]string{dir}, r.searchPaths...)
	r.loader = nil
}

// Get returns a Schema bound to this registry's loader for the given name
// and version. The document itself is not loaded until Schema.Document is
// called.
func (r *Registry) Get(name, version string) *Schema {
	return New(name, version, r.getLoader())
}

func (r *Registry) getLoader() Loader {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loader == nil {
		paths := make([]string, len(r.searchPaths))
		copy(paths, r.searchPaths)
		fs := &fsLoader{searchPaths: paths, compiler: jsonschema.NewCompiler()}
		r.loader = &chainLoader{primary: fs, secondary: newEmbeddedLoader()}
	}
	return r.loader
}

// snapshot captures enough state to restore the registry to its current
// configuration later.
type snapshot struct {
	searchPaths []string
}

// Snapshot captures the registry's current search paths for later
// restoration via Restore. Intended for test setup/teardown.
func (r *Registry) Snapshot() *snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	paths := make([]string, len(r.searchPaths))
	copy(paths, r.searchPaths)
	return &snapshot{searchPaths: paths}
}

// Restore resets the registry's search paths (and invalidates the cached
// loader) to a previously captured Snapshot.
func (r *Registry) Restore(s *snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searchPaths = s.searchPaths
	r.loader = nil
}

// RegisterSearchPath registers dir on the Default registry.
func RegisterSearchPath(dir string) { Default.RegisterSearchPath(dir) }

// Get returns a Schema from the Default registry.
func Get(name, version string) *Schema { return Default.Get(name, version) }

// fsLoader loads schema documents as "<dir>/<name>/<version>.json" files,
// searching registered directories in order and returning the first match.
type fsLoader struct {
	searchPaths []string
	mu          sync.Mutex
	compiler    *jsonschema.Compiler
}

// Load implements Loader.
func (l *fsLoader) Load(name, version string) (*jsonschema.Schema, error) {
	for _, dir := range l.searchPaths {
		path := filepath.Join(dir, name, version+".json")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.compiler.Compile(path)
	}
	return nil, fmt.Errorf("schema %s@%s not found in any of %d search paths", name, version, len(l.searchPaths))
}
