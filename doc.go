// Package anvil is a catalog-driven web framework.
//
// Routes, events and modules are declared in an action catalog, one or more
// INI or YAML files merged in order. Code registers controllers whose actions
// the catalog names; New binds the two and panics on anything unresolved.
//
//	; routes.ini
//	[route.user.show]
//	method = GET
//	path = /users/{id}
//	controller = user
//	actions = load, show
//
//	[event.user.created]
//	controller = mailer
//	actions = welcome
//	async = true
//
//	[module.admin]
//	prefix = /admin
//	autoroute = true
//
// # Dispatch
//
// An HTTP route runs its actions in order against one [Context]; the chain
// stops at the first error or once an action wrote the response. Module
// routes mount under the module prefix with module middleware and
// module-scoped controllers. Events run their listeners in order, through
// River when marked async and WithEvents is configured, or on a cron
// schedule.
//
//	app := anvil.New(
//	    anvil.WithCatalog(cat),
//	    anvil.WithController("user", anvil.Actions{
//	        "load": users.load,
//	        "show": users.show,
//	    }),
//	    anvil.WithEventController("mailer", anvil.Listeners{
//	        "welcome": mailer.welcome,
//	    }),
//	    anvil.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
//	    anvil.WithSession(session.NewRedisStore(client, "app")),
//	)
//	if err := app.Run(":8080"); err != nil {
//	    log.Fatal(err)
//	}
//
// # URLs
//
// [Context.URL] and [App.URL] build paths from a controller/action pair
// through the route cache, so templates never hard-code paths.
//
// # Errors
//
// Handlers return errors. [Error] carries a status, a message and a
// [Severity]; the default error handler logs at the matching slog level and
// renders text or JSON.
package anvil
