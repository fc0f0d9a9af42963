package session

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/anvil/pkg/db"
	"github.com/dmitrymomot/anvil/pkg/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MigrationsTable is the goose version table used by Migrate.
const MigrationsTable = "anvil_session_migrations"

// Migrate creates the sessions table.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) error {
	if log == nil {
		log = logger.NewNope()
	}
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	return db.Migrate(ctx, pool, fsys, MigrationsTable, log)
}

// DB is the subset of pgxpool.Pool used by PostgresStore; pgx.Tx satisfies it too.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps sessions in the sessions table created by Migrate.
type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const (
	insertSessionQuery = `
INSERT INTO sessions (id, token, user_id, data, ip, user_agent, created_at, last_active_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	selectSessionQuery = `
SELECT id, token, user_id, data, ip, user_agent, created_at, last_active_at, expires_at
FROM sessions WHERE token = $1`

	updateSessionQuery = `
UPDATE sessions
SET token = $2, user_id = $3, data = $4, ip = $5, user_agent = $6, last_active_at = $7, expires_at = $8
WHERE id = $1`
)

func (p *PostgresStore) Create(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s.Values)
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	_, err = p.db.Exec(ctx, insertSessionQuery,
		s.ID, s.Token, s.UserID, data, s.IP, s.UserAgent, s.CreatedAt, s.LastActiveAt, s.ExpiresAt)
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, token string) (*Session, error) {
	var (
		s    Session
		data []byte
	)
	err := p.db.QueryRow(ctx, selectSessionQuery, token).Scan(
		&s.ID, &s.Token, &s.UserID, &data, &s.IP, &s.UserAgent, &s.CreatedAt, &s.LastActiveAt, &s.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStore, err)
	}
	if err := json.Unmarshal(data, &s.Values); err != nil {
		return nil, errors.Join(ErrStore, err)
	}
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	if s.IsExpired() {
		return nil, ErrExpired
	}
	return &s, nil
}

func (p *PostgresStore) Update(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s.Values)
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	tag, err := p.db.Exec(ctx, updateSessionQuery,
		s.ID, s.Token, s.UserID, data, s.IP, s.UserAgent, s.LastActiveAt, s.ExpiresAt)
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	return p.exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
}

func (p *PostgresStore) DeleteByUserID(ctx context.Context, userID string) error {
	return p.exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
}

func (p *PostgresStore) Touch(ctx context.Context, id string, lastActiveAt time.Time) error {
	tag, err := p.db.Exec(ctx, `UPDATE sessions SET last_active_at = $2 WHERE id = $1`, id, lastActiveAt)
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := p.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, errors.Join(ErrStore, err)
	}
	return tag.RowsAffected(), nil
}

func (p *PostgresStore) exec(ctx context.Context, sql string, args ...any) error {
	if _, err := p.db.Exec(ctx, sql, args...); err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}
