// Package catalog holds the action catalog: named routes and events that map
// to a controller and an ordered list of its actions, plus the modules that
// group routes under a path prefix.
//
// Catalogs are usually loaded from INI files. Later files are merged into
// earlier ones, so an application can ship a base catalog and let a
// deployment extend it:
//
//	; routes.ini
//	[module.admin]
//	prefix    = /admin
//	autoroute = true
//
//	[route.user.show]
//	method     = GET
//	path       = /users/{id}
//	controller = user
//	actions    = load, show
//
//	[route.admin.users]
//	module     = admin
//	path       = /users
//	controller = users
//	actions    = list
//
//	[event.user.created]
//	controller = mailer
//	actions    = welcome
//	async      = true
//
//	[event.sessions.cleanup]
//	controller = maintenance
//	actions    = purge_sessions
//	schedule   = @hourly
//
// Merging follows one rule for every entry kind: when a name already exists,
// non-empty scalar fields of the incoming entry replace the current ones and
// its actions are appended, skipping actions the entry already lists.
//
//	cat, err := catalog.Load("config/routes.ini", "config/routes.local.ini")
//
// A Catalog is safe for concurrent use. Every successful change bumps
// [Catalog.Version], which caches use to discard stale lookups.
package catalog
