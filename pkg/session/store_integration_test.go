//go:build integration

package session_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/pkg/redis"
	"github.com/dmitrymomot/anvil/pkg/session"
)

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	client, err := redis.Open(context.Background(), redis.Config{URL: url, RetryAttempts: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := session.NewRedisStore(client, "anvil-test")
	testStore(t, store)

	expired := session.New("x", "x", time.Now().Add(-time.Second))
	require.ErrorIs(t, store.Create(context.Background(), expired), session.ErrExpired)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, session.Migrate(ctx, pool, nil))

	store := session.NewPostgresStore(pool)
	testStore(t, store)

	dead := session.New("dead-"+time.Now().Format("150405.000000000"), "dead-token-"+time.Now().Format("150405.000000000"), time.Now().Add(-time.Minute))
	require.NoError(t, store.Create(ctx, dead))
	n, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
}
