//go:build integration

package main

import (
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCmd(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	t.Setenv("ANVILCLI_DATABASE_URL", url)

	_, err := execute(t, "migrate")
	require.NoError(t, err)

	// A second run finds nothing to apply.
	_, err = execute(t, "migrate")
	require.NoError(t, err)

	pool, err := pgxpool.New(t.Context(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	for _, table := range []string{"sessions", "river_job", "river_leader"} {
		var exists bool
		require.NoError(t, pool.QueryRow(t.Context(), "SELECT to_regclass($1) IS NOT NULL", table).Scan(&exists))
		assert.True(t, exists, table)
	}
}
