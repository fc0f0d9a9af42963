package event

import "errors"

var (
	ErrEmptyName         = errors.New("event: empty name")
	ErrNoListeners       = errors.New("event: no listeners")
	ErrUnknownListener   = errors.New("event: unknown listener")
	ErrDuplicateListener = errors.New("event: duplicate listener id")
	ErrEmptyListenerID   = errors.New("event: empty listener id")
	ErrInvalidPayload    = errors.New("event: invalid payload")
	ErrListenerPanic     = errors.New("event: listener panicked")
	ErrInvalidSchedule   = errors.New("event: invalid schedule")
	ErrAlreadyStarted    = errors.New("event: already started")
	ErrNotStarted        = errors.New("event: not started")
	ErrPoolRequired      = errors.New("event: pool is required")
	ErrBusRequired       = errors.New("event: bus is required")
	ErrHealthcheckFailed = errors.New("event: healthcheck failed")
)
