package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/anvil/pkg/cookie"
	"github.com/dmitrymomot/anvil/pkg/db"
	"github.com/dmitrymomot/anvil/pkg/logger"
	"github.com/dmitrymomot/anvil/pkg/redis"
)

var (
	ErrParse      = errors.New("config: failed to parse environment")
	ErrNoCatalog  = errors.New("config: no catalog files configured")
	ErrSessionTTL = errors.New("config: session max age must be positive")
)

// Server holds HTTP server settings.
type Server struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Session holds server-side session settings.
type Session struct {
	// Store is memory, redis or postgres.
	Store      string `env:"SESSION_STORE" envDefault:"memory"`
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"__session"`
	// MaxAge is in seconds.
	MaxAge      int    `env:"SESSION_MAX_AGE" envDefault:"604800"`
	RedisPrefix string `env:"SESSION_REDIS_PREFIX" envDefault:"session"`
}

// Events holds async event queue settings. The queue is used when a
// database is configured.
type Events struct {
	Queue      string `env:"EVENTS_QUEUE" envDefault:"events"`
	MaxWorkers int    `env:"EVENTS_MAX_WORKERS" envDefault:"10"`
}

// Config is the full environment configuration of an application.
type Config struct {
	Server  Server
	Session Session
	Events  Events
	Log     logger.Config
	Sentry  logger.SentryConfig
	DB      db.Config
	Redis   redis.Config
	Cookie  cookie.Config
	// Catalog lists INI or YAML files, merged in order.
	Catalog []string `env:"CATALOG" envSeparator:"," envDefault:"config/routes.ini"`
	// RouteCacheTTL is how long resolved routes stay cached.
	RouteCacheTTL time.Duration `env:"ROUTE_CACHE_TTL" envDefault:"1h"`
}

// Load parses the environment into a Config, optionally under a variable
// prefix such as "APP_".
func Load(prefix string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: prefix}); err != nil {
		return nil, errors.Join(ErrParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is Load that panics on error.
func MustLoad(prefix string) *Config {
	cfg, err := Load(prefix)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks values the environment parser cannot.
func (c *Config) Validate() error {
	var errs []error
	if len(c.CatalogFiles()) == 0 {
		errs = append(errs, ErrNoCatalog)
	}
	if c.Session.MaxAge <= 0 {
		errs = append(errs, ErrSessionTTL)
	}
	switch c.Session.Store {
	case "memory", "redis", "postgres":
	default:
		errs = append(errs, fmt.Errorf("config: unknown session store %q", c.Session.Store))
	}
	if c.Session.Store == "redis" && c.Redis.URL == "" {
		errs = append(errs, errors.New("config: redis session store needs REDIS_URL"))
	}
	if c.Session.Store == "postgres" && c.DB.URL == "" {
		errs = append(errs, errors.New("config: postgres session store needs DATABASE_URL"))
	}
	return errors.Join(errs...)
}

// CatalogFiles returns the configured catalog paths without blanks.
func (c *Config) CatalogFiles() []string {
	files := make([]string, 0, len(c.Catalog))
	for _, f := range c.Catalog {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	return files
}
