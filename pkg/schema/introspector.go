package schema

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/anvil/pkg/cache"
)

// DefaultSchema is used when Table receives an empty schema name.
const DefaultSchema = "public"

// Option configures an Introspector.
type Option func(*Introspector)

// WithCache sets the column cache. Default: in-memory.
func WithCache(c cache.Cache[[]Column]) Option {
	return func(in *Introspector) {
		if c != nil {
			in.cache = c
		}
	}
}

// WithTTL sets how long column lists are cached. Default: 10 minutes.
func WithTTL(ttl time.Duration) Option {
	return func(in *Introspector) {
		in.ttl = ttl
	}
}

// Introspector loads table definitions through a Querier.
type Introspector struct {
	q     Querier
	cache cache.Cache[[]Column]
	ttl   time.Duration
}

// New creates an introspector. It panics when q is nil.
func New(q Querier, opts ...Option) *Introspector {
	if q == nil {
		panic("schema: querier is required")
	}
	in := &Introspector{q: q, ttl: 10 * time.Minute}
	for _, opt := range opts {
		opt(in)
	}
	if in.cache == nil {
		in.cache = cache.NewMemory[[]Column]()
	}
	return in
}

// Table returns the definition of schemaName.name.
func (in *Introspector) Table(ctx context.Context, schemaName, name string) (*Table, error) {
	schemaName = strings.TrimSpace(schemaName)
	if schemaName == "" {
		schemaName = DefaultSchema
	}

	cols, err := cache.GetOrSet(ctx, in.cache, cacheKey(schemaName, name), func(ctx context.Context) ([]Column, time.Duration, error) {
		cols, err := queryColumns(ctx, in.q, schemaName, name)
		if err != nil {
			return nil, 0, err
		}
		if len(cols) == 0 {
			return nil, 0, fmt.Errorf("%w: %s.%s", ErrTableNotFound, schemaName, name)
		}
		return cols, in.ttl, nil
	})
	if err != nil {
		return nil, err
	}
	return NewTable(schemaName, name, slices.Clone(cols)), nil
}

// Invalidate drops the cached definition of schemaName.name.
func (in *Introspector) Invalidate(ctx context.Context, schemaName, name string) error {
	schemaName = strings.TrimSpace(schemaName)
	if schemaName == "" {
		schemaName = DefaultSchema
	}
	return in.cache.Delete(ctx, cacheKey(schemaName, name))
}

// InvalidateAll drops every cached definition.
func (in *Introspector) InvalidateAll(ctx context.Context) error {
	return in.cache.Clear(ctx)
}

// cacheKey quotes both parts so names containing dots cannot collide.
func cacheKey(schemaName, name string) string {
	return pgx.Identifier{schemaName, name}.Sanitize()
}
