package anvil

import (
	"context"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/anvil/internal"
	"github.com/dmitrymomot/anvil/pkg/catalog"
	"github.com/dmitrymomot/anvil/pkg/cookie"
	"github.com/dmitrymomot/anvil/pkg/event"
	"github.com/dmitrymomot/anvil/pkg/health"
	"github.com/dmitrymomot/anvil/pkg/logger"
	"github.com/dmitrymomot/anvil/pkg/routecache"
	"github.com/dmitrymomot/anvil/pkg/session"
)

type (
	// App wires a catalog to controllers and serves it.
	App = internal.App

	// Context provides request/response access and helper methods.
	Context = internal.Context

	// Router is the interface handlers use to declare routes by hand.
	Router = internal.Router

	// Handler declares routes on a Router.
	Handler = internal.Handler

	// HandlerFunc is the signature of route handlers and controller actions.
	HandlerFunc = internal.HandlerFunc

	Middleware   = internal.Middleware
	ErrorHandler = internal.ErrorHandler

	// Controller resolves catalog action names to handlers.
	Controller = internal.Controller

	// Actions is a map-backed Controller.
	Actions = internal.Actions

	// EventController resolves catalog action names to event listeners.
	EventController = internal.EventController

	// Listeners is a map-backed EventController.
	Listeners = internal.Listeners

	Option       = internal.Option
	ModuleOption = internal.ModuleOption
	RunOption    = internal.RunOption
	HealthOption = internal.HealthOption

	// Error is the error type handlers return to control the response.
	Error       = internal.HTTPError
	ErrorOption = internal.HTTPErrorOption
	Severity    = internal.Severity

	// Catalog is the registry of routes, events and modules.
	Catalog = catalog.Catalog
	Route   = catalog.Route
	Module  = catalog.Module

	// Event is a named JSON payload carried on the bus.
	Event    = event.Event
	Listener = event.Listener

	ContextExtractor = logger.ContextExtractor
	CookieOption     = cookie.Option
	SessionOption    = internal.SessionOption
	Session          = session.Session
	SessionStore     = session.Store
	ResponseWriter   = internal.ResponseWriter
	Extractor        = internal.Extractor
	ExtractorSource  = internal.ExtractorSource
)

const (
	SeverityDebug    = internal.SeverityDebug
	SeverityInfo     = internal.SeverityInfo
	SeverityNotice   = internal.SeverityNotice
	SeverityWarning  = internal.SeverityWarning
	SeverityError    = internal.SeverityError
	SeverityCritical = internal.SeverityCritical

	// LevelCritical is the slog level critical errors are logged at.
	LevelCritical = internal.LevelCritical
)

var (
	ErrEventQueueNotConfigured = internal.ErrEventQueueNotConfigured
	ErrRouteNotMatched         = internal.ErrRouteNotMatched
)

// New creates an application. It panics when the catalog references a
// controller, action, listener or module that was not registered.
//
//	cat, err := anvil.LoadCatalog("config/routes.ini", "config/events.yaml")
//	if err != nil {
//	    return err
//	}
//	app := anvil.New(
//	    anvil.WithCatalog(cat),
//	    anvil.WithController("user", anvil.Actions{"load": u.load, "show": u.show}),
//	    anvil.WithEventController("mailer", anvil.Listeners{"welcome": m.welcome}),
//	)
//	err = app.Run(":8080")
func New(opts ...Option) *App {
	return internal.New(opts...)
}

// LoadCatalog reads and merges INI (.ini) and YAML (.yaml, .yml) catalog files
// in order. Entries with the same name merge; their action lists concatenate.
func LoadCatalog(paths ...string) (*Catalog, error) {
	return catalog.Load(paths...)
}

// LoadCatalogFS is LoadCatalog reading from fsys, e.g. an embed.FS.
func LoadCatalogFS(fsys fs.FS, paths ...string) (*Catalog, error) {
	return catalog.LoadFS(fsys, paths...)
}

// App options

func WithCatalog(c *Catalog) Option {
	return internal.WithCatalog(c)
}

func WithController(name string, c Controller) Option {
	return internal.WithController(name, c)
}

func WithEventController(name string, c EventController) Option {
	return internal.WithEventController(name, c)
}

// WithModule configures a catalog module with scoped controllers and middleware.
func WithModule(name string, opts ...ModuleOption) Option {
	return internal.WithModule(name, opts...)
}

func WithModuleController(name string, c Controller) ModuleOption {
	return internal.WithModuleController(name, c)
}

func WithModuleMiddleware(mw ...Middleware) ModuleOption {
	return internal.WithModuleMiddleware(mw...)
}

// WithEvents enables the River-backed queue for async catalog events.
func WithEvents(pool *pgxpool.Pool, opts ...event.RiverOption) Option {
	return internal.WithEvents(pool, opts...)
}

// WithRouteCache configures the controller/action route cache, e.g. to share
// it through Redis with routecache.WithStore(cache.NewRedis(...)).
func WithRouteCache(opts ...routecache.Option) Option {
	return internal.WithRouteCache(opts...)
}

func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithHandlers registers hand-written routes next to the catalog.
func WithHandlers(h ...Handler) Option {
	return internal.WithHandlers(h...)
}

func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return internal.WithStaticFiles(pattern, fsys, subDir)
}

func WithErrorHandler(h ErrorHandler) Option {
	return internal.WithErrorHandler(h)
}

func WithNotFoundHandler(h HandlerFunc) Option {
	return internal.WithNotFoundHandler(h)
}

func WithMethodNotAllowedHandler(h HandlerFunc) Option {
	return internal.WithMethodNotAllowedHandler(h)
}

// WithHealthChecks enables /health/live and /health/ready.
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

// WithLogger creates a JSON logger tagged with component.
// Extractors add request-scoped values such as request_id.
func WithLogger(component string, extractors ...ContextExtractor) Option {
	return internal.WithLogger(component, extractors...)
}

func WithCustomLogger(l *slog.Logger) Option {
	return internal.WithCustomLogger(l)
}

func WithCookieOptions(opts ...CookieOption) Option {
	return internal.WithCookieOptions(opts...)
}

func WithCookieManager(m *cookie.Manager) Option {
	return internal.WithCookieManager(m)
}

// WithSession enables server-side sessions stored in store.
func WithSession(store SessionStore, opts ...SessionOption) Option {
	return internal.WithSession(store, opts...)
}

// Health options

func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// Cookie options

// WithCookieSecret sets the signing and encryption secret, 32 bytes or more.
func WithCookieSecret(secret string) CookieOption {
	return cookie.WithSecret(secret)
}

func WithCookiePreviousSecrets(secrets ...string) CookieOption {
	return cookie.WithPreviousSecrets(secrets...)
}

func WithCookieDomain(domain string) CookieOption {
	return cookie.WithDomain(domain)
}

func WithCookieSecure(secure bool) CookieOption {
	return cookie.WithSecure(secure)
}

// Session options

func WithSessionCookieName(name string) SessionOption {
	return internal.WithSessionCookieName(name)
}

func WithSessionMaxAge(seconds int) SessionOption {
	return internal.WithSessionMaxAge(seconds)
}

func WithSessionSecure(secure bool) SessionOption {
	return internal.WithSessionSecure(secure)
}

func WithSessionDomain(domain string) SessionOption {
	return internal.WithSessionDomain(domain)
}

// Run options

func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

func StartupHook(fn func(context.Context) error) RunOption {
	return internal.StartupHook(fn)
}

func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

// Errors

// NewError creates an Error whose severity derives from code.
func NewError(code int, message string, opts ...ErrorOption) *Error {
	return internal.NewHTTPError(code, message, opts...)
}

func WithSeverity(s Severity) ErrorOption { return internal.WithSeverity(s) }
func WithDetail(detail string) ErrorOption { return internal.WithDetail(detail) }
func WithErrorCode(code string) ErrorOption { return internal.WithErrorCode(code) }
func WithError(err error) ErrorOption { return internal.WithError(err) }

func ErrBadRequest(msg string, opts ...ErrorOption) *Error { return internal.ErrBadRequest(msg, opts...) }
func ErrUnauthorized(msg string, opts ...ErrorOption) *Error { return internal.ErrUnauthorized(msg, opts...) }
func ErrForbidden(msg string, opts ...ErrorOption) *Error { return internal.ErrForbidden(msg, opts...) }
func ErrNotFound(msg string, opts ...ErrorOption) *Error { return internal.ErrNotFound(msg, opts...) }
func ErrConflict(msg string, opts ...ErrorOption) *Error { return internal.ErrConflict(msg, opts...) }
func ErrUnprocessable(msg string, opts ...ErrorOption) *Error { return internal.ErrUnprocessable(msg, opts...) }
func ErrInternal(msg string, opts ...ErrorOption) *Error { return internal.ErrInternal(msg, opts...) }

func IsError(err error) bool { return internal.IsHTTPError(err) }
func AsError(err error) *Error { return internal.AsHTTPError(err) }
func SeverityForCode(code int) Severity { return internal.SeverityForCode(code) }

// DefaultErrorHandler is the error handler used unless WithErrorHandler is set.
func DefaultErrorHandler(c Context, err error) error {
	return internal.DefaultErrorHandler(c, err)
}

// Helpers

// Param returns the URL parameter converted to T, or the zero T.
func Param[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	return internal.Param[T](c, name)
}

// Query returns the query parameter converted to T, or the zero T.
func Query[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	return internal.Query[T](c, name)
}

func QueryDefault[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string, def T) T {
	return internal.QueryDefault(c, name, def)
}

// ContextValue returns the request value stored under key, or the zero T.
func ContextValue[T any](c Context, key any) T {
	return internal.ContextValue[T](c, key)
}

// SessionValue returns the session value under key as T.
func SessionValue[T any](c Context, key string) (T, error) {
	return internal.SessionValue[T](c, key)
}

// DecodeEvent decodes the payload of e.
func DecodeEvent[T any](e Event) (T, error) {
	return event.Decode[T](e)
}

func NewExtractor(sources ...ExtractorSource) Extractor {
	return internal.NewExtractor(sources...)
}

func FromHeader(name string) ExtractorSource { return internal.FromHeader(name) }
func FromQuery(name string) ExtractorSource { return internal.FromQuery(name) }
func FromCookie(name string) ExtractorSource { return internal.FromCookie(name) }
func FromCookieSigned(name string) ExtractorSource { return internal.FromCookieSigned(name) }
func FromSession(key string) ExtractorSource { return internal.FromSession(key) }
func FromBearerToken() ExtractorSource { return internal.FromBearerToken() }
