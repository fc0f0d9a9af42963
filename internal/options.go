package internal

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/anvil/pkg/catalog"
	"github.com/dmitrymomot/anvil/pkg/cookie"
	"github.com/dmitrymomot/anvil/pkg/event"
	"github.com/dmitrymomot/anvil/pkg/health"
	"github.com/dmitrymomot/anvil/pkg/logger"
	"github.com/dmitrymomot/anvil/pkg/routecache"
	"github.com/dmitrymomot/anvil/pkg/session"
)

// Option configures the application.
type Option func(*App)

// WithCatalog sets the catalog of routes, events and modules.
// Catalogs passed in several calls are merged in order.
func WithCatalog(c *catalog.Catalog) Option {
	return func(a *App) {
		if c == nil {
			return
		}
		if a.catalog == nil {
			a.catalog = c
			return
		}
		if err := a.catalog.Merge(c); err != nil {
			panic(err.Error())
		}
	}
}

// WithController registers the controller catalog routes refer to by name.
func WithController(name string, c Controller) Option {
	return func(a *App) {
		if name == "" || c == nil {
			panic("anvil: controller needs a name and a value")
		}
		a.controllers[name] = c
	}
}

// WithEventController registers the listeners catalog events refer to by controller name.
func WithEventController(name string, c EventController) Option {
	return func(a *App) {
		if name == "" || c == nil {
			panic("anvil: event controller needs a name and a value")
		}
		a.eventControllers[name] = c
	}
}

// WithEvents delivers async catalog events through a River queue on pool.
// Workers start with App.Start (or Run) and stop with App.Stop.
//
//	anvil.WithEvents(pool, event.WithQueueName("events"), event.WithMaxWorkers(10))
func WithEvents(pool *pgxpool.Pool, opts ...event.RiverOption) Option {
	return func(a *App) {
		a.eventsPool = pool
		a.riverOpts = append(a.riverOpts, opts...)
	}
}

// WithRouteCache configures the controller/action route cache,
// for example to back it with Redis.
func WithRouteCache(opts ...routecache.Option) Option {
	return func(a *App) {
		a.routeCacheOpts = append(a.routeCacheOpts, opts...)
	}
}

// WithMiddleware adds middleware around every catalog route, AutoRoute and
// hand-written handler, applied in the order provided. It sees the matched
// route and the error returned by the actions. Static files and health
// endpoints bypass it.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithHandlers registers handlers that declare routes by hand, next to the catalog.
func WithHandlers(h ...Handler) Option {
	return func(a *App) {
		a.handlers = append(a.handlers, h...)
	}
}

// WithStaticFiles mounts fsys/subDir at pattern. Directory listings are disabled.
//
//	//go:embed public
//	var assets embed.FS
//
//	anvil.WithStaticFiles("/static/", assets, "public")
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return func(a *App) {
		subFS, err := fs.Sub(fsys, subDir)
		if err != nil {
			panic(err)
		}
		fileServer := http.StripPrefix(strings.TrimSuffix(pattern, "/"), http.FileServerFS(subFS))

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Cache-Control", "public, max-age=3600")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			fileServer.ServeHTTP(w, r)
		})

		a.staticRoutes = append(a.staticRoutes, staticRoute{handler, pattern})
	}
}

// WithErrorHandler replaces DefaultErrorHandler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		if h != nil {
			a.errorHandler = h
		}
	}
}

// WithNotFoundHandler sets a custom 404 handler.
func WithNotFoundHandler(h HandlerFunc) Option {
	return func(a *App) {
		a.notFoundHandler = h
	}
}

// WithMethodNotAllowedHandler sets a custom 405 handler.
func WithMethodNotAllowedHandler(h HandlerFunc) Option {
	return func(a *App) {
		a.methodNotAllowedHandler = h
	}
}

// WithHealthChecks enables /health/live and /health/ready.
//
//	anvil.WithHealthChecks(
//	    anvil.WithReadinessCheck("db", db.Healthcheck(pool)),
//	    anvil.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		cfg := &healthConfig{
			livenessPath:  defaultLivenessPath,
			readinessPath: defaultReadinessPath,
			checks:        make(health.Checks),
		}
		for _, opt := range opts {
			opt(cfg)
		}
		a.healthConfig = cfg
	}
}

// WithLogger creates a JSON stdout logger tagged with a component name.
// Extractors add request-scoped values such as the request ID.
func WithLogger(component string, extractors ...logger.ContextExtractor) Option {
	return func(a *App) {
		a.logger = logger.New(extractors...).With("component", component)
	}
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithCookieOptions configures the cookie manager.
//
//	anvil.WithCookieOptions(
//	    anvil.WithCookieSecret(os.Getenv("COOKIE_SECRET")),
//	    anvil.WithCookieSecure(true),
//	)
func WithCookieOptions(opts ...cookie.Option) Option {
	return func(a *App) {
		a.cookieManager = cookie.New(opts...)
	}
}

// WithCookieManager sets a prepared cookie manager, e.g. from cookie.NewFromConfig.
func WithCookieManager(m *cookie.Manager) Option {
	return func(a *App) {
		if m != nil {
			a.cookieManager = m
		}
	}
}

// WithSession enables server-side sessions. Sessions load lazily and dirty
// ones are saved before the response is written.
//
//	anvil.WithSession(session.NewRedisStore(client, "app"),
//	    anvil.WithSessionMaxAge(86400*7),
//	    anvil.WithSessionSecure(true),
//	)
func WithSession(store session.Store, opts ...SessionOption) Option {
	return func(a *App) {
		a.sessionManager = NewSessionManager(store, opts...)
	}
}
