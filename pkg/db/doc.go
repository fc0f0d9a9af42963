// Package db wraps pgxpool with startup retries, health checks,
// transactions and goose migrations.
//
// Settings come from the environment through [Config]:
//
//	DATABASE_URL                - PostgreSQL connection URL (required)
//	DATABASE_MAX_CONNS          - Pool size (default: 10)
//	DATABASE_MIN_CONNS          - Idle connections kept open (default: 2)
//	DATABASE_MAX_CONN_IDLE_TIME - Idle connection lifetime (default: 10m)
//	DATABASE_MAX_CONN_LIFETIME  - Connection lifetime (default: 30m)
//	DATABASE_RETRY_ATTEMPTS     - Connect attempts (default: 3)
//	DATABASE_RETRY_INTERVAL     - Base delay between attempts (default: 2s)
//
// Migrations are read from an fs.FS:
//
//	//go:embed migrations/*.sql
//	var migrations embed.FS
//
//	err := db.Migrate(ctx, pool, migrations, "migrations", log)
package db
