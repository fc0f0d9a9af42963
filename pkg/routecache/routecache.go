package routecache

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/anvil/pkg/cache"
	"github.com/dmitrymomot/anvil/pkg/catalog"
)

// Option configures a Cache.
type Option func(*Cache)

// WithStore sets the backing store. Default: an in-memory cache.
func WithStore(store cache.Cache[catalog.Route]) Option {
	return func(c *Cache) {
		if store != nil {
			c.store = store
		}
	}
}

// WithTTL sets how long a resolved route is kept. Default: 1 hour.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// Cache resolves controller/action pairs against a catalog.
type Cache struct {
	cat   *catalog.Catalog
	store cache.Cache[catalog.Route]
	ttl   time.Duration
}

// New creates a route cache over cat.
func New(cat *catalog.Catalog, opts ...Option) *Cache {
	if cat == nil {
		panic("routecache: catalog is required")
	}
	c := &Cache{cat: cat, ttl: time.Hour}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = cache.NewMemory[catalog.Route](cache.WithMaxEntries(4096))
	}
	return c
}

// Lookup returns the route serving action of controller.
// The version is read before the catalog, so a concurrent change can only
// store a newer route under an older key, which no later lookup uses.
func (c *Cache) Lookup(ctx context.Context, controller, action string) (catalog.Route, error) {
	key := Key(c.cat.Version(), controller, action)
	return cache.GetOrSet(ctx, c.store, key, func(context.Context) (catalog.Route, time.Duration, error) {
		r, ok := c.cat.Find(controller, action)
		if !ok {
			return catalog.Route{}, 0, fmt.Errorf("%w: %s/%s", ErrRouteNotFound, controller, action)
		}
		return r, c.ttl, nil
	})
}

// URL builds the path of the route serving action of controller.
// Params fill the path placeholders; the rest are appended as a query string.
func (c *Cache) URL(ctx context.Context, controller, action string, params map[string]string) (string, error) {
	r, err := c.Lookup(ctx, controller, action)
	if err != nil {
		return "", err
	}

	prefix := ""
	if r.Module != "" {
		m, ok := c.cat.Module(r.Module)
		if !ok {
			return "", fmt.Errorf("%w: route %q module %q", catalog.ErrUnknownModule, r.Name, r.Module)
		}
		prefix = m.Prefix
	}
	return Build(prefix, r.Path, params)
}

// Invalidate drops every cached route.
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// Close releases the backing store.
func (c *Cache) Close() error {
	return c.store.Close()
}

// Key is the store key of a controller/action pair at a catalog version.
func Key(version uint64, controller, action string) string {
	return fmt.Sprintf("v%d:%s/%s", version, controller, action)
}
