package catalog

import (
	"fmt"
	"sync"
)

// FamilyFunc instantiates one member of a parametrized metric family from
// its argument tuple. It must be pure: the registry memoizes instances so
// identical arguments always yield the identical definition.
type FamilyFunc func(args []Arg) (*Definition, error)

// Registry maps metric names to definitions. It is built once at startup,
// then frozen; family instances materialize lazily on request and are
// memoized by their canonical name.
type Registry struct {
	frozen   bool
	defs     map[string]*Definition
	order    []*Definition
	families map[string]FamilyFunc

	mu        sync.Mutex
	instances map[string]*Definition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		defs:      make(map[string]*Definition),
		families:  make(map[string]FamilyFunc),
		instances: make(map[string]*Definition),
	}
}

// Register adds a statically declared definition. Registering after Freeze
// or reusing a name is a programming error.
func (r *Registry) Register(def *Definition) *Definition {
	if r.frozen {
		panic("catalog: register on frozen registry")
	}
	if _, dup := r.defs[def.Name]; dup {
		panic(fmt.Sprintf("catalog: duplicate metric %q", def.Name))
	}
	r.defs[def.Name] = def
	r.order = append(r.order, def)
	return def
}

// RegisterFamily adds a parametrized family under an identifier.
func (r *Registry) RegisterFamily(name string, fn FamilyFunc) {
	if r.frozen {
		panic("catalog: register on frozen registry")
	}
	if _, dup := r.families[name]; dup {
		panic(fmt.Sprintf("catalog: duplicate family %q", name))
	}
	r.families[name] = fn
}

// Freeze marks the registry read-only. Family instances may still
// materialize afterwards.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Definitions enumerates the statically declared definitions in registration
// order. Parametrized families are excluded; their members only exist once
// requested by name.
func (r *Registry) Definitions() []*Definition {
	out := make([]*Definition, len(r.order))
	copy(out, r.order)
	return out
}

// Instance returns the memoized member of a family for an argument tuple,
// creating it on first request.
func (r *Registry) Instance(family string, args []Arg) (*Definition, error) {
	fn, ok := r.families[family]
	if !ok {
		return nil, &UnknownMetricError{Name: family}
	}
	key := InstanceName(family, args)

	r.mu.Lock()
	if def, ok := r.instances[key]; ok {
		r.mu.Unlock()
		return def, nil
	}
	r.mu.Unlock()

	// The family func may itself request instances (zone histograms depend
	// on zone definitions), so it runs unlocked.
	def, err := fn(args)
	if err != nil {
		return nil, err
	}
	if def.Name != key {
		panic(fmt.Sprintf("catalog: family %q produced %q for %q", family, def.Name, key))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.instances[key]; ok {
		// Lost a race with an identical instantiation; identity wins.
		return existing, nil
	}
	r.instances[key] = def
	return def, nil
}

// Resolve maps a metric name to its definition and any trailing field path
// per the grammar Identifier | Identifier[args] | Identifier[args][fields].
func (r *Registry) Resolve(name string) (*Definition, []string, error) {
	p, err := parseName(name)
	if err != nil {
		return nil, nil, err
	}
	if !p.hasArgs {
		def, ok := r.defs[p.ident]
		if !ok {
			return nil, nil, &UnknownMetricError{Name: p.ident}
		}
		return def, p.fields, nil
	}
	def, err := r.Instance(p.ident, p.args)
	if err != nil {
		return nil, nil, err
	}
	return def, p.fields, nil
}
