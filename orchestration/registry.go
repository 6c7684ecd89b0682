package orchestration

import (
	"context"
	"fmt"
	"sync"

	"github.com/waivern/wct/message"
	"github.com/waivern/wct/schema"
)

// Connector produces the initial Message for a source artifact (e.g.
// reading a file, querying a database, listing a filesystem tree).
type Connector interface {
	Connect(ctx context.Context, properties map[string]any) (*message.Message, error)
}

// Analyser transforms one or more input Messages into an output Message
// (e.g. pattern-matching findings, LLM-assisted classification).
type Analyser interface {
	Analyse(ctx context.Context, inputs []*message.Message, properties map[string]any) (*message.Message, error)
}

// Classifier is a specialised Analyser that assigns a class label rather
// than emitting findings; kept as a distinct interface so the component
// registry can expose "ls-processors" vs. a future "ls-classifiers" split
// without a type switch on the same interface.
type Classifier interface {
	Classify(ctx context.Context, inputs []*message.Message, properties map[string]any) (*message.Message, error)
}

// Exporter writes a final Message somewhere outside the run (a report file,
// an external system). Exporters are terminal: they have no output
// artifact of their own.
type Exporter interface {
	Export(ctx context.Context, inputs []*message.Message, properties map[string]any) error
}

// Lifetime controls how a ComponentRegistry factory's product is reused
// across a run.
type Lifetime int

const (
	// Transient constructs a new component instance on every Get call.
	Transient Lifetime = iota
	// Singleton constructs a component once per ServiceContainer and reuses
	// it for every subsequent Get call.
	Singleton
)

// Factory describes and constructs one named component (a Connector,
// Analyser, Classifier, or Exporter). Beyond the construction closure
// itself, it carries the metadata a Planner needs to resolve a runbook into
// an ExecutionPlan without ever instantiating the component: the schemas it
// accepts and produces, the named services it depends on, and a predicate
// that can reject a malformed properties block before construction.
type Factory struct {
	// ComponentName is the "{kind}:{type}" name this factory is registered
	// under (e.g. "process:detection"). Set by Register, not by callers.
	ComponentName string

	// InputSchemas lists the schemas this component accepts, in the order
	// its artifact's declared Inputs are consumed. Empty for a source
	// component, which has no Inputs.
	InputSchemas []*schema.Schema

	// OutputSchemas lists the schema(s) this component may produce. A
	// Planner resolves an artifact's effective output schema as its
	// definition's output_schema override if set, else the factory's first
	// declared OutputSchema. An Exporter has no output and leaves this nil.
	OutputSchemas []*schema.Schema

	// ServiceDependencies names other registered components (or
	// ServiceContainer singletons) this component's Construct function
	// resolves internally, for dependency reporting and ls-* introspection.
	ServiceDependencies []string

	// Construct builds one instance of the component.
	Construct func(ctx context.Context) (any, error)

	// CanCreate reports whether properties is an acceptable configuration
	// for this component, without constructing it. A nil CanCreate accepts
	// every properties block, deferring validation to Construct/the
	// component's own Connect/Analyse/Classify/Export call.
	CanCreate func(properties map[string]any) bool
}

// canCreate evaluates f.CanCreate, defaulting to true when unset.
func (f *Factory) canCreate(properties map[string]any) bool {
	if f.CanCreate == nil {
		return true
	}
	return f.CanCreate(properties)
}

// outputSchema returns the factory's declared default output schema, or
// nil if it produces none (an Exporter) or declares none.
func (f *Factory) outputSchema() *schema.Schema {
	if len(f.OutputSchemas) == 0 {
		return nil
	}
	return f.OutputSchemas[0]
}

type registryEntry struct {
	factory  *Factory
	lifetime Lifetime
}

// ComponentRegistry is a process-wide, name-keyed factory registry for one
// component kind (connectors, processors, or exporters). It mirrors
// schema.Registry's snapshot/restore pattern for test isolation.
type ComponentRegistry struct {
	mu      sync.Mutex
	entries map[string]registryEntry
}

// NewComponentRegistry constructs an empty ComponentRegistry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{entries: make(map[string]registryEntry)}
}

// Register adds a named factory. Re-registering a name overwrites the
// previous factory, which Snapshot/Restore exists to undo in tests.
func (r *ComponentRegistry) Register(name string, lifetime Lifetime, factory *Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	factory.ComponentName = name
	r.entries[name] = registryEntry{factory: factory, lifetime: lifetime}
}

// Lookup returns the Factory registered under name, for metadata
// inspection (the Planner's schema resolution, ls-* introspection) without
// constructing the component.
func (r *ComponentRegistry) Lookup(name string) (*Factory, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return entry.factory, true
}

// Names returns every registered component name, used by the `ls-*` CLI
// subcommands.
func (r *ComponentRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

type registrySnapshot struct {
	entries map[string]registryEntry
}

// Snapshot captures the current registration set for later Restore, used
// by tests that register throwaway fakes.
func (r *ComponentRegistry) Snapshot() *registrySnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make(map[string]registryEntry, len(r.entries))
	for k, v := range r.entries {
		cp[k] = v
	}
	return &registrySnapshot{entries: cp}
}

// Restore replaces the current registration set with a previously captured
// Snapshot.
func (r *ComponentRegistry) Restore(s *registrySnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = s.entries
}

// ServiceContainer resolves named components, honouring each factory's
// declared Lifetime, and tracks singletons so they can be torn down via
// Shutdown.
type ServiceContainer struct {
	registry   *ComponentRegistry
	mu         sync.Mutex
	singletons map[string]any
	shutdowns  []func(ctx context.Context) error
}

// NewServiceContainer constructs a ServiceContainer bound to registry.
func NewServiceContainer(registry *ComponentRegistry) *ServiceContainer {
	return &ServiceContainer{registry: registry, singletons: make(map[string]any)}
}

// Get resolves name, constructing it (and caching it, if Singleton) via its
// registered Factory.
func (c *ServiceContainer) Get(ctx context.Context, name string) (any, error) {
	c.registry.mu.Lock()
	entry, ok := c.registry.entries[name]
	c.registry.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no component registered under name %q", name)
	}

	if entry.lifetime == Transient {
		return entry.factory.Construct(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.singletons[name]; ok {
		return existing, nil
	}
	instance, err := entry.factory.Construct(ctx)
	if err != nil {
		return nil, err
	}
	c.singletons[name] = instance
	if shutter, ok := instance.(interface{ Shutdown(ctx context.Context) error }); ok {
		c.shutdowns = append(c.shutdowns, shutter.Shutdown)
	}
	return instance, nil
}

// Shutdown tears down every singleton component that implements
// Shutdown(ctx) error, in reverse construction order, collecting (not
// short-circuiting on) individual shutdown errors.
func (c *ServiceContainer) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	shutdowns := c.shutdowns
	c.shutdowns = nil
	c.mu.Unlock()

	var errs []error
	for i := len(shutdowns) - 1; i >= 0; i-- {
		if err := shutdowns[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("shutdown errors: %v", errs)
}
