package session

import (
	"context"
	"time"
)

// Store persists sessions.
type Store interface {
	Create(ctx context.Context, s *Session) error

	// Get returns ErrNotFound for unknown tokens and ErrExpired for expired sessions.
	Get(ctx context.Context, token string) (*Session, error)

	// Update saves s, including a rotated token.
	Update(ctx context.Context, s *Session) error

	Delete(ctx context.Context, id string) error

	// DeleteByUserID removes every session of a user.
	DeleteByUserID(ctx context.Context, userID string) error

	// Touch updates LastActiveAt only.
	Touch(ctx context.Context, id string, lastActiveAt time.Time) error

	// DeleteExpired removes expired sessions and reports how many.
	DeleteExpired(ctx context.Context) (int64, error)
}
