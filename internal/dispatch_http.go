package internal

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/anvil/pkg/catalog"
)

// actionChain runs actions in order against one Context. It stops at the
// first error or as soon as an action has written the response.
func actionChain(actions []HandlerFunc) HandlerFunc {
	return func(c Context) error {
		for _, h := range actions {
			if err := h(c); err != nil {
				return err
			}
			if c.Written() {
				return nil
			}
		}
		return nil
	}
}

// mountRoutes registers catalog routes on router. Controllers resolve in mod
// first, then app-wide. App and module middleware wrap each action chain.
func (a *App) mountRoutes(router chi.Router, routes []catalog.Route, mod *moduleConfig) {
	var mw []Middleware
	if mod != nil {
		mw = mod.middlewares
	}
	for _, r := range routes {
		actions, err := a.resolveActions(r, mod)
		if err != nil {
			panic("anvil: " + err.Error())
		}
		router.Method(r.Method, r.Path, a.routeHandler(r, a.chain(actionChain(actions), mw)))
	}
}

func (a *App) resolveActions(r catalog.Route, mod *moduleConfig) ([]HandlerFunc, error) {
	ctrl, ok := a.controller(r.Controller, mod)
	if !ok {
		return nil, fmt.Errorf("route %q: controller %q is not registered", r.Name, r.Controller)
	}

	actions := make([]HandlerFunc, 0, len(r.Actions))
	for _, name := range r.Actions {
		h, ok := ctrl.Action(name)
		if !ok {
			return nil, fmt.Errorf("route %q: controller %q has no action %q", r.Name, r.Controller, name)
		}
		actions = append(actions, h)
	}
	return actions, nil
}

func (a *App) controller(name string, mod *moduleConfig) (Controller, bool) {
	if mod != nil {
		if c, ok := mod.controllers[name]; ok {
			return c, true
		}
	}
	c, ok := a.controllers[name]
	return c, ok
}

// routeHandler serves one matched route.
func (a *App) routeHandler(r catalog.Route, h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		c := newContext(w, req, a)
		c.setRoute(r)
		a.finish(c, h(c))
	}
}

// finish renders err, or answers 204 when nothing was written so that dirty
// sessions are still flushed.
func (a *App) finish(c *requestContext, err error) {
	if err == nil && !c.Written() {
		err = c.NoContent(http.StatusNoContent)
	}
	if err != nil {
		a.handleError(c, err)
	}
}
