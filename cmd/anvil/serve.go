package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/anvil"
	"github.com/dmitrymomot/anvil/middlewares"
	"github.com/dmitrymomot/anvil/pkg/cache"
	"github.com/dmitrymomot/anvil/pkg/catalog"
	"github.com/dmitrymomot/anvil/pkg/config"
	"github.com/dmitrymomot/anvil/pkg/cookie"
	"github.com/dmitrymomot/anvil/pkg/db"
	"github.com/dmitrymomot/anvil/pkg/event"
	"github.com/dmitrymomot/anvil/pkg/logger"
	"github.com/dmitrymomot/anvil/pkg/redis"
	"github.com/dmitrymomot/anvil/pkg/routecache"
	"github.com/dmitrymomot/anvil/pkg/session"
)

// ActionHeader lists, in order, the actions a placeholder chain ran.
const ActionHeader = "X-Anvil-Action"

func serveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog with placeholder controllers",
		Long: `Serve mounts every catalog route with placeholder actions that
record their names in the X-Anvil-Action response header and answer 204.
Events are logged. Database and Redis connections are opened when
DATABASE_URL and REDIS_URL are set and are checked by /health/ready.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, cat, err := flags.loadCatalog()
			if err != nil {
				return err
			}
			log := logger.NewWithSentry(cfg.Log, cfg.Sentry, middlewares.RequestIDExtractor()).
				With("component", "anvil")

			deps, err := connect(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			app := newApp(cfg, cat, deps, log)
			return app.Run(cfg.Server.Addr,
				anvil.Logger(log),
				anvil.WithContext(cmd.Context()),
				anvil.ShutdownTimeout(cfg.Server.ShutdownTimeout),
				anvil.ShutdownHook(deps.close),
			)
		},
	}
}

// dependencies are the optional connections named by the configuration.
type dependencies struct {
	pool  *pgxpool.Pool
	redis goredis.UniversalClient
}

func connect(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	deps := &dependencies{}
	if cfg.DB.URL != "" {
		pool, err := db.Connect(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		deps.pool = pool
	}
	if cfg.Redis.URL != "" {
		client, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			return nil, errors.Join(err, deps.close(ctx))
		}
		deps.redis = client
	}
	return deps, nil
}

func (d *dependencies) close(ctx context.Context) error {
	var errs []error
	if d.redis != nil {
		errs = append(errs, redis.Shutdown(d.redis)(ctx))
	}
	if d.pool != nil {
		errs = append(errs, db.Shutdown(d.pool)(ctx))
	}
	return errors.Join(errs...)
}

func newApp(cfg *config.Config, cat *catalog.Catalog, deps *dependencies, log *slog.Logger) *anvil.App {
	opts := []anvil.Option{
		anvil.WithCatalog(cat),
		anvil.WithCustomLogger(log),
		anvil.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
		anvil.WithCookieManager(cookie.NewFromConfig(cfg.Cookie)),
	}

	for _, name := range controllerNames(cat.Routes()) {
		opts = append(opts, anvil.WithController(name, placeholder{}))
	}
	for _, name := range controllerNames(cat.Events()) {
		opts = append(opts, anvil.WithEventController(name, placeholderListeners{log: log}))
	}

	health := []anvil.HealthOption{}
	routeCache := []routecache.Option{routecache.WithTTL(cfg.RouteCacheTTL)}

	var store session.Store = session.NewMemoryStore()
	if deps.pool != nil {
		health = append(health, anvil.WithReadinessCheck("db", db.Healthcheck(deps.pool)))
		opts = append(opts, anvil.WithEvents(deps.pool,
			event.WithQueueName(cfg.Events.Queue),
			event.WithMaxWorkers(cfg.Events.MaxWorkers),
		))
		if cfg.Session.Store == "postgres" {
			store = session.NewPostgresStore(deps.pool)
		}
	}
	if deps.redis != nil {
		health = append(health, anvil.WithReadinessCheck("redis", redis.Healthcheck(deps.redis)))
		routeCache = append(routeCache, routecache.WithStore(
			cache.NewRedis[catalog.Route](deps.redis, cache.JSONCodec[catalog.Route]{}, cache.WithPrefix("routes")),
		))
		if cfg.Session.Store == "redis" {
			store = session.NewRedisStore(deps.redis, cfg.Session.RedisPrefix)
		}
	}

	opts = append(opts,
		anvil.WithHealthChecks(health...),
		anvil.WithRouteCache(routeCache...),
		anvil.WithSession(store,
			anvil.WithSessionCookieName(cfg.Session.CookieName),
			anvil.WithSessionMaxAge(cfg.Session.MaxAge),
			anvil.WithSessionSecure(cfg.Cookie.Secure),
			anvil.WithSessionDomain(cfg.Cookie.Domain),
		),
	)
	return anvil.New(opts...)
}

func controllerNames(routes []catalog.Route) []string {
	seen := make(map[string]bool, len(routes))
	var names []string
	for _, r := range routes {
		if !seen[r.Controller] {
			seen[r.Controller] = true
			names = append(names, r.Controller)
		}
	}
	return names
}

// placeholder resolves every action to a handler that only records its name.
type placeholder struct{}

func (placeholder) Action(name string) (anvil.HandlerFunc, bool) {
	return func(c anvil.Context) error {
		c.Response().Header().Add(ActionHeader, name)
		return nil
	}, true
}

type placeholderListeners struct {
	log *slog.Logger
}

func (p placeholderListeners) Listener(name string) (event.Listener, bool) {
	return func(ctx context.Context, e event.Event) error {
		p.log.InfoContext(ctx, "event received",
			slog.String("event", e.Name),
			slog.String("event_id", e.ID),
			slog.String("listener", name),
		)
		return nil
	}, true
}
