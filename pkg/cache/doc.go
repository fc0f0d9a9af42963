// Package cache provides a small generic key-value cache used by the route
// cache and the schema introspector.
//
// Two backends share the [Cache] interface: [Memory] for a single process
// and [Redis] for entries shared between instances.
//
// TTL semantics for Set:
//   - positive: the entry expires after the duration
//   - zero: the backend's default TTL applies
//   - negative: the entry never expires
//
// [GetOrSet] loads a missing value once even when many goroutines miss the
// same key at the same time:
//
//	routes := cache.NewMemory[catalog.Route](cache.WithMaxEntries(1024))
//	defer routes.Close()
//
//	r, err := cache.GetOrSet(ctx, routes, "user/show", func(ctx context.Context) (catalog.Route, time.Duration, error) {
//	    return resolve(ctx)
//	})
package cache
