package catalog

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"
)

// Catalog is a registry of routes, events and modules.
type Catalog struct {
	routes  map[string]Route
	events  map[string]Route
	modules map[string]Module
	version uint64
	mu      sync.RWMutex
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		routes:  make(map[string]Route),
		events:  make(map[string]Route),
		modules: make(map[string]Module),
	}
}

// Add validates r and merges it into the catalog under r.Name.
// r.Kind selects the registry; an empty kind means KindHTTP.
func (c *Catalog) Add(r Route) error {
	r = r.normalize()
	if r.Kind == "" {
		r.Kind = KindHTTP
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	reg := c.registry(r.Kind)
	if reg == nil {
		return fmt.Errorf("%w: %q has unknown kind %q", ErrInvalidRoute, r.Name, r.Kind)
	}

	merged := r
	if cur, ok := reg[r.Name]; ok {
		merged = cur.merge(r)
	}
	if merged.Kind == KindHTTP && merged.Method == "" {
		merged.Method = http.MethodGet
	}
	if err := merged.validate(); err != nil {
		return err
	}

	reg[merged.Name] = merged
	c.version++
	return nil
}

// AddModule validates m and merges it into the catalog under m.Name.
func (c *Catalog) AddModule(m Module) error {
	m = m.normalize()

	c.mu.Lock()
	defer c.mu.Unlock()

	merged := m
	if cur, ok := c.modules[m.Name]; ok {
		merged = cur.merge(m)
	}
	if err := merged.validate(); err != nil {
		return err
	}

	c.modules[merged.Name] = merged
	c.version++
	return nil
}

// Merge merges every module, route and event of other into c.
// Modules go first so routes can reference them. Merging stops at the first
// invalid entry; entries merged before it stay merged.
func (c *Catalog) Merge(other *Catalog) error {
	if other == nil || other == c {
		return nil
	}
	for _, m := range other.Modules() {
		if err := c.AddModule(m); err != nil {
			return err
		}
	}
	for _, r := range append(other.Routes(), other.Events()...) {
		if err := c.Add(r); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks cross-entry references: every route module must exist,
// module prefixes must not overlap, and a route outside modules must not sit
// at or below a module prefix, where the module's sub-router would hide it.
func (c *Catalog) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	modules := slices.Sorted(maps.Keys(c.modules))
	for i, a := range modules {
		for _, b := range modules[i+1:] {
			pa, pb := c.modules[a].Prefix, c.modules[b].Prefix
			if underPrefix(pa, pb) || underPrefix(pb, pa) {
				return fmt.Errorf("%w: modules %q (%s) and %q (%s) overlap", ErrPathConflict, a, pa, b, pb)
			}
		}
	}

	for _, name := range slices.Sorted(maps.Keys(c.routes)) {
		r := c.routes[name]
		if r.Module != "" {
			if _, ok := c.modules[r.Module]; !ok {
				return fmt.Errorf("%w: route %q references %q", ErrUnknownModule, r.Name, r.Module)
			}
			continue
		}
		for _, m := range modules {
			if underPrefix(r.Path, c.modules[m].Prefix) {
				return fmt.Errorf("%w: route %q path %s is inside module %q prefix %s",
					ErrPathConflict, r.Name, r.Path, m, c.modules[m].Prefix)
			}
		}
	}
	return nil
}

// underPrefix reports whether path is prefix or a path below it.
func underPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// Route returns the HTTP route registered under name.
func (c *Catalog) Route(name string) (Route, bool) {
	return c.get(KindHTTP, name)
}

// Event returns the event registered under name.
func (c *Catalog) Event(name string) (Route, bool) {
	return c.get(KindEvent, name)
}

// Module returns the module registered under name.
func (c *Catalog) Module(name string) (Module, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.modules[name]
	return m, ok
}

// Routes returns all HTTP routes sorted by name.
func (c *Catalog) Routes() []Route {
	return c.list(KindHTTP)
}

// Events returns all events sorted by name.
func (c *Catalog) Events() []Route {
	return c.list(KindEvent)
}

// Modules returns all modules sorted by name.
func (c *Catalog) Modules() []Module {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Module, 0, len(c.modules))
	for _, name := range slices.Sorted(maps.Keys(c.modules)) {
		out = append(out, c.modules[name])
	}
	return out
}

// ModuleRoutes returns the HTTP routes of module, sorted by name.
// An empty module selects routes that belong to no module.
func (c *Catalog) ModuleRoutes(module string) []Route {
	var out []Route
	for _, r := range c.Routes() {
		if r.Module == module {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the first HTTP route, by name, served by controller that lists action.
// controller may be qualified as "module:controller" to search one module only;
// an unqualified controller matches routes of any module.
func (c *Catalog) Find(controller, action string) (Route, bool) {
	module, name, qualified := strings.Cut(controller, ":")
	if !qualified {
		name = module
	}

	for _, r := range c.Routes() {
		if qualified && r.Module != module {
			continue
		}
		if r.Controller == name && r.HasAction(action) {
			return r, true
		}
	}
	return Route{}, false
}

// Version increases with every successful change.
func (c *Catalog) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Len returns the number of routes plus events.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.routes) + len(c.events)
}

func (c *Catalog) get(kind Kind, name string) (Route, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.registry(kind)[name]
	if ok {
		r.Actions = slices.Clone(r.Actions)
	}
	return r, ok
}

func (c *Catalog) list(kind Kind) []Route {
	c.mu.RLock()
	defer c.mu.RUnlock()

	reg := c.registry(kind)
	out := make([]Route, 0, len(reg))
	for _, name := range slices.Sorted(maps.Keys(reg)) {
		r := reg[name]
		r.Actions = slices.Clone(r.Actions)
		out = append(out, r)
	}
	return out
}

// registry returns the map for kind. Caller holds mu.
func (c *Catalog) registry(kind Kind) map[string]Route {
	switch kind {
	case KindHTTP:
		return c.routes
	case KindEvent:
		return c.events
	default:
		return nil
	}
}
