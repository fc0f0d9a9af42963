package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/pkg/config"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := config.Load("ANVILTEST_DEFAULTS_")
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
		assert.Equal(t, "memory", cfg.Session.Store)
		assert.Equal(t, 604800, cfg.Session.MaxAge)
		assert.Equal(t, []string{"config/routes.ini"}, cfg.CatalogFiles())
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, int32(10), cfg.DB.MaxConns)
		assert.True(t, cfg.Cookie.Secure)
		assert.Equal(t, time.Hour, cfg.RouteCacheTTL)
	})

	t.Run("prefixed values", func(t *testing.T) {
		t.Setenv("APP_ADDR", ":9090")
		t.Setenv("APP_CATALOG", "routes.ini, ,events.yaml")
		t.Setenv("APP_LOG_FORMAT", "text")
		t.Setenv("APP_COOKIE_SECRET", "secret")
		t.Setenv("APP_EVENTS_MAX_WORKERS", "3")

		cfg, err := config.Load("APP_")
		require.NoError(t, err)

		assert.Equal(t, ":9090", cfg.Server.Addr)
		assert.Equal(t, []string{"routes.ini", "events.yaml"}, cfg.CatalogFiles())
		assert.Equal(t, "text", cfg.Log.Format)
		assert.Equal(t, "secret", cfg.Cookie.Secret)
		assert.Equal(t, 3, cfg.Events.MaxWorkers)
	})

	t.Run("malformed value", func(t *testing.T) {
		t.Setenv("BAD_SHUTDOWN_TIMEOUT", "soon")

		_, err := config.Load("BAD_")
		require.ErrorIs(t, err, config.ErrParse)
	})

	t.Run("redis store without url", func(t *testing.T) {
		t.Setenv("RS_SESSION_STORE", "redis")

		_, err := config.Load("RS_")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "REDIS_URL")
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Catalog: []string{" "},
		Session: config.Session{Store: "file"},
	}
	err := cfg.Validate()
	require.ErrorIs(t, err, config.ErrNoCatalog)
	require.ErrorIs(t, err, config.ErrSessionTTL)
	assert.Contains(t, err.Error(), `unknown session store "file"`)
}

func TestMustLoadPanics(t *testing.T) {
	t.Setenv("MP_SESSION_MAX_AGE", "0")
	assert.Panics(t, func() { config.MustLoad("MP_") })
}
