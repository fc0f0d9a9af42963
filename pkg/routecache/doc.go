// Package routecache resolves controller/action pairs to catalog routes and
// builds URLs for them.
//
// Lookups go through a [cache.Cache] keyed by the catalog version, so a
// catalog change makes every earlier entry unreachable without an explicit
// flush:
//
//	rc := routecache.New(cat)
//	route, err := rc.Lookup(ctx, "user", "show")
//	link, err := rc.URL(ctx, "user", "show", map[string]string{"id": "42", "tab": "posts"})
//	// link == "/users/42?tab=posts"
//
// The controller may be qualified with a module name ("admin:users") to
// resolve routes of that module only.
package routecache
