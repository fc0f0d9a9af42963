package internal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/anvil/pkg/catalog"
	"github.com/dmitrymomot/anvil/pkg/cookie"
	"github.com/dmitrymomot/anvil/pkg/event"
	"github.com/dmitrymomot/anvil/pkg/health"
	"github.com/dmitrymomot/anvil/pkg/logger"
	"github.com/dmitrymomot/anvil/pkg/routecache"
)

// Default server timeouts.
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// App wires a catalog to controllers and serves it.
// App is immutable after creation; all configuration is done via New().
type App struct {
	router                  chi.Router
	catalog                 *catalog.Catalog
	routes                  *routecache.Cache
	bus                     *event.Bus
	queue                   *event.RiverQueue
	scheduler               *event.Scheduler
	errorHandler            ErrorHandler
	notFoundHandler         HandlerFunc
	methodNotAllowedHandler HandlerFunc
	healthConfig            *healthConfig
	logger                  *slog.Logger
	cookieManager           *cookie.Manager
	sessionManager          *SessionManager
	controllers             map[string]Controller
	eventControllers        map[string]EventController
	modules                 map[string]*moduleConfig
	eventsPool              *pgxpool.Pool
	riverOpts               []event.RiverOption
	routeCacheOpts          []routecache.Option
	middlewares             []Middleware
	handlers                []Handler
	staticRoutes            []staticRoute
}

type staticRoute struct {
	handler http.Handler
	pattern string
}

// New creates an application. It panics when the catalog names a
// controller, action, listener or module that was not registered.
//
// Example:
//
//	cat, err := catalog.Load("config/routes.ini")
//	app := anvil.New(
//	    anvil.WithCatalog(cat),
//	    anvil.WithController("user", userController),
//	    anvil.WithEventController("mailer", mailerListeners),
//	)
func New(opts ...Option) *App {
	a := &App{
		router:           chi.NewRouter(),
		logger:           logger.NewNope(),
		cookieManager:    cookie.New(),
		errorHandler:     DefaultErrorHandler,
		controllers:      make(map[string]Controller),
		eventControllers: make(map[string]EventController),
		modules:          make(map[string]*moduleConfig),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.catalog == nil {
		a.catalog = catalog.New()
	}
	if err := a.catalog.Validate(); err != nil {
		panic(err.Error())
	}
	if a.sessionManager != nil {
		a.sessionManager.SetLogger(a.logger)
	}

	a.routes = routecache.New(a.catalog, a.routeCacheOpts...)
	a.setupEvents()
	a.setupRoutes()
	return a
}

// Router returns the underlying chi.Router.
func (a *App) Router() chi.Router {
	return a.router
}

// ServeHTTP makes App an http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Catalog returns the catalog the app was built from.
func (a *App) Catalog() *catalog.Catalog {
	return a.catalog
}

// Routes returns the route cache used for URL generation.
func (a *App) Routes() *routecache.Cache {
	return a.routes
}

// Bus returns the event bus carrying catalog events.
func (a *App) Bus() *event.Bus {
	return a.bus
}

// URL builds the path of the route serving action of controller.
func (a *App) URL(ctx context.Context, controller, action string, params map[string]string) (string, error) {
	return a.routes.URL(ctx, controller, action, params)
}

// Start starts background event processing: the River queue (with its
// periodic jobs), or the in-process scheduler when there is no queue.
func (a *App) Start(ctx context.Context) error {
	if a.queue != nil {
		if err := a.queue.Start(ctx); err != nil {
			return err
		}
	}
	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stop stops what Start started, scheduler first.
func (a *App) Stop(ctx context.Context) error {
	var errs []error
	if a.scheduler != nil {
		if err := a.scheduler.Stop(ctx); err != nil && !errors.Is(err, event.ErrNotStarted) {
			errs = append(errs, err)
		}
	}
	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil && !errors.Is(err, event.ErrNotStarted) {
			errs = append(errs, err)
		}
	}
	if err := a.routes.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Run starts the HTTP server and blocks until shutdown.
// Background event processing starts before serving and stops after the
// server has drained.
//
// Example:
//
//	err := app.Run(":8080", anvil.Logger(log))
func (a *App) Run(addr string, opts ...RunOption) error {
	cfg := buildRunConfig(opts...)
	if cfg.logger == nil {
		cfg.logger = a.logger
	}

	return runServer(runtimeConfig{
		handler:         a.router,
		address:         addr,
		logger:          cfg.logger,
		shutdownTimeout: cfg.shutdownTimeout,
		startupHooks:    append([]func(context.Context) error{a.Start}, cfg.startupHooks...),
		shutdownHooks:   append([]func(context.Context) error{a.Stop}, cfg.shutdownHooks...),
		baseCtx:         cfg.baseCtx,
	})
}

func (a *App) setupRoutes() {
	if a.notFoundHandler != nil {
		a.router.NotFound(a.wrapHandler(a.chain(a.notFoundHandler, nil)))
	}
	if a.methodNotAllowedHandler != nil {
		a.router.MethodNotAllowed(a.wrapHandler(a.chain(a.methodNotAllowedHandler, nil)))
	}

	for _, sr := range a.staticRoutes {
		a.router.Mount(sr.pattern, sr.handler)
	}

	if a.healthConfig != nil {
		checks := a.healthConfig.checks
		if a.queue != nil {
			if _, ok := checks["events"]; !ok {
				checks["events"] = event.Healthcheck(a.queue)
			}
		}
		a.router.Get(a.healthConfig.livenessPath, health.LivenessHandler())
		a.router.Get(a.healthConfig.readinessPath,
			health.ReadinessHandler(checks, health.WithLogger(a.logger)))
	}

	r := &routerAdapter{router: a.router, app: a}
	for _, h := range a.handlers {
		h.Routes(r)
	}

	a.mountRoutes(a.router, a.catalog.ModuleRoutes(""), nil)
	a.mountModules()
}

// wrapHandler converts a HandlerFunc to an http.HandlerFunc using the app's error handler.
func (a *App) wrapHandler(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := newContext(w, r, a)
		if err := h(c); err != nil {
			a.handleError(c, err)
		}
	}
}

// handleError renders err through the error handler. Once the response has
// started it can only be logged.
func (a *App) handleError(c Context, err error) {
	if c.Written() {
		logError(c, toHTTPError(err))
		return
	}
	if herr := a.errorHandler(c, err); herr != nil {
		a.logger.ErrorContext(c.Context(), "error handler failed", slog.Any("error", herr))
		if !c.Written() {
			http.Error(c.Response(), http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
}

const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

// HealthOption configures health check endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath sets the liveness endpoint path. Default: /health/live.
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath sets the readiness endpoint path. Default: /health/ready.
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck adds a named readiness check. Checks run in parallel.
// With an event queue configured, an "events" check is added automatically.
//
//	anvil.WithReadinessCheck("db", db.Healthcheck(pool))
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c *healthConfig) {
		c.checks[name] = fn
	}
}
