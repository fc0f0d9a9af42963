package internal

import "github.com/dmitrymomot/anvil/pkg/event"

// Handler declares routes on a router.
//
// Example:
//
//	type AuthHandler struct {
//	    repo *repository.Queries
//	}
//
//	func (h *AuthHandler) Routes(r anvil.Router) {
//	    r.GET("/login", h.showLogin)
//	    r.POST("/login", h.handleLogin)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers and controller actions.
// Returning a non-nil error triggers the error handler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc to add cross-cutting concerns.
//
// Example:
//
//	func Auth(next anvil.HandlerFunc) anvil.HandlerFunc {
//	    return func(c anvil.Context) error {
//	        if !c.IsAuthenticated() {
//	            return c.Redirect(302, "/login")
//	        }
//	        return next(c)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler handles errors returned from handlers.
type ErrorHandler func(Context, error) error

// Controller resolves action names of catalog routes to handlers.
type Controller interface {
	Action(name string) (HandlerFunc, bool)
}

// Actions is a Controller backed by a map.
//
//	anvil.WithController("user", anvil.Actions{
//	    "load": users.load,
//	    "show": users.show,
//	})
type Actions map[string]HandlerFunc

func (a Actions) Action(name string) (HandlerFunc, bool) {
	h, ok := a[name]
	return h, ok && h != nil
}

// EventController resolves action names of catalog events to listeners.
type EventController interface {
	Listener(name string) (event.Listener, bool)
}

// Listeners is an EventController backed by a map.
type Listeners map[string]event.Listener

func (l Listeners) Listener(name string) (event.Listener, bool) {
	fn, ok := l[name]
	return fn, ok && fn != nil
}
