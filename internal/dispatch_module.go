package internal

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/anvil/pkg/catalog"
)

type moduleConfig struct {
	controllers map[string]Controller
	middlewares []Middleware
}

// ModuleOption configures a catalog module.
type ModuleOption func(*moduleConfig)

// WithModuleController registers a controller visible only inside the module.
// It shadows an app-wide controller of the same name.
func WithModuleController(name string, c Controller) ModuleOption {
	return func(m *moduleConfig) {
		if name == "" || c == nil {
			panic("anvil: module controller needs a name and a value")
		}
		m.controllers[name] = c
	}
}

// WithModuleMiddleware adds middleware run for every request under the module prefix.
func WithModuleMiddleware(mw ...Middleware) ModuleOption {
	return func(m *moduleConfig) {
		m.middlewares = append(m.middlewares, mw...)
	}
}

// WithModule configures the catalog module name. The catalog must define it.
//
//	anvil.WithModule("admin",
//	    anvil.WithModuleMiddleware(requireAdmin),
//	    anvil.WithModuleController("users", adminUsers),
//	)
func WithModule(name string, opts ...ModuleOption) Option {
	return func(a *App) {
		cfg, ok := a.modules[name]
		if !ok {
			cfg = &moduleConfig{controllers: make(map[string]Controller)}
			a.modules[name] = cfg
		}
		for _, opt := range opts {
			opt(cfg)
		}
	}
}

// mountModules mounts every catalog module at its prefix as a sub-router.
func (a *App) mountModules() {
	for name := range a.modules {
		if _, ok := a.catalog.Module(name); !ok {
			panic(fmt.Sprintf("anvil: module %q is configured but not in the catalog", name))
		}
	}

	for _, m := range a.catalog.Modules() {
		cfg, ok := a.modules[m.Name]
		if !ok {
			cfg = &moduleConfig{controllers: make(map[string]Controller)}
		}

		a.router.Route(m.Prefix, func(r chi.Router) {
			a.mountRoutes(r, a.catalog.ModuleRoutes(m.Name), cfg)

			if m.AutoRoute {
				h := a.autoRoute(m, cfg)
				r.Get("/{controller}/{action}", h)
				r.Post("/{controller}/{action}", h)
			}
		})
	}
}

// autoRoute resolves {controller}/{action} against the module's own
// controllers at request time, inside the app and module middleware.
func (a *App) autoRoute(m catalog.Module, cfg *moduleConfig) http.HandlerFunc {
	h := a.chain(func(c Context) error {
		fn, err := autoAction(cfg, c.Param("controller"), c.Param("action"))
		if err != nil {
			return err
		}
		return fn(c)
	}, cfg.middlewares)

	return func(w http.ResponseWriter, req *http.Request) {
		c := newContext(w, req, a)
		name, action := c.Param("controller"), c.Param("action")
		c.setRoute(catalog.Route{
			Name:       m.Name + ":" + name + "/" + action,
			Kind:       catalog.KindHTTP,
			Method:     req.Method,
			Path:       "/" + name + "/" + action,
			Module:     m.Name,
			Controller: name,
			Actions:    []string{action},
		})
		a.finish(c, h(c))
	}
}

func autoAction(cfg *moduleConfig, controller, action string) (HandlerFunc, error) {
	ctrl, ok := cfg.controllers[controller]
	if !ok {
		return nil, ErrNotFound(http.StatusText(http.StatusNotFound),
			WithError(fmt.Errorf("%w: unknown controller %q", ErrRouteNotMatched, controller)))
	}
	h, ok := ctrl.Action(action)
	if !ok {
		return nil, ErrNotFound(http.StatusText(http.StatusNotFound),
			WithError(fmt.Errorf("%w: controller %q has no action %q", ErrRouteNotMatched, controller, action)))
	}
	return h, nil
}
