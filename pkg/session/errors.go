package session

import "errors"

var (
	// ErrNotConfigured is returned when session helpers run without a session manager.
	ErrNotConfigured = errors.New("session: not configured")
	ErrNotFound      = errors.New("session: not found")
	ErrExpired       = errors.New("session: expired")
	ErrInvalidToken  = errors.New("session: invalid token")
	ErrTypeMismatch  = errors.New("session: type mismatch")
	ErrStore         = errors.New("session: store failure")
)
