// Package internal implements the anvil application: catalog-driven HTTP,
// module and event dispatch, the request Context, sessions and errors.
//
// Import "github.com/dmitrymomot/anvil" instead; it re-exports this API.
//
// # Dispatch
//
// New reads the catalog and binds every entry to registered code:
//
//   - HTTP routes resolve their controller in the route's module first, then
//     app-wide, and run the listed actions in order. The chain stops at the
//     first error or once an action wrote the response; a chain that writes
//     nothing answers 204.
//   - Modules mount at their prefix with their own middleware. AutoRoute
//     modules also serve GET and POST {prefix}/{controller}/{action} against
//     module controllers.
//   - Events subscribe the listed listeners of their event controller. Async
//     events go through the River queue configured with WithEvents, one job
//     per listener. Scheduled events become River periodic jobs when the
//     queue is configured, and fire from an in-process cron scheduler
//     otherwise.
//
// Any name the catalog references but the app does not register makes New panic.
//
// # Context
//
// Context embeds context.Context and can be passed to any function that takes
// one. Route, URL and Dispatch expose the catalog to actions:
//
//	func (h *users) show(c anvil.Context) error {
//	    u, err := h.repo.Get(c, c.Param("id"))
//	    if err != nil {
//	        return anvil.ErrNotFound("user not found", anvil.WithError(err))
//	    }
//	    edit, _ := c.URL("user", "edit", map[string]string{"id": u.ID})
//	    return c.JSON(http.StatusOK, view{User: u, EditURL: edit})
//	}
//
// # Errors
//
// Handlers return errors; the ErrorHandler renders them. HTTPError carries the
// status, a user-facing message and a Severity that sets the log level.
// Other errors become a 500 whose cause is logged but never rendered.
package internal
