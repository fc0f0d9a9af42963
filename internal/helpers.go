package internal

import (
	"strconv"

	"github.com/dmitrymomot/anvil/pkg/session"
)

type scalar interface {
	~string | ~int | ~int64 | ~float64 | ~bool
}

// ContextValue returns the request value stored under key, or the zero T.
func ContextValue[T any](c Context, key any) T {
	if v, ok := c.Get(key).(T); ok {
		return v
	}
	var zero T
	return zero
}

// Param returns the URL parameter converted to T, or the zero T.
func Param[T scalar](c Context, name string) T {
	v, _ := convertParam[T](c.Param(name))
	return v
}

// Query returns the query parameter converted to T, or the zero T.
func Query[T scalar](c Context, name string) T {
	v, _ := convertParam[T](c.Query(name))
	return v
}

// QueryDefault returns defaultValue when the parameter is empty or unparsable.
func QueryDefault[T scalar](c Context, name string, defaultValue T) T {
	v, ok := convertParam[T](c.Query(name))
	if !ok {
		return defaultValue
	}
	return v
}

// SessionValue returns the session value under key as T.
// Values decoded from a store as JSON are converted through a JSON round trip.
func SessionValue[T any](c Context, key string) (T, error) {
	var zero T
	sess, err := c.Session()
	if err != nil {
		return zero, err
	}
	if sess == nil {
		return zero, session.ErrNotFound
	}
	return session.Value[T](sess, key)
}

func convertParam[T scalar](raw string) (T, bool) {
	var zero T
	if raw == "" {
		return zero, false
	}

	var (
		v   any
		err error
	)
	switch any(zero).(type) {
	case string:
		v = raw
	case int:
		v, err = strconv.Atoi(raw)
	case int64:
		v, err = strconv.ParseInt(raw, 10, 64)
	case float64:
		v, err = strconv.ParseFloat(raw, 64)
	case bool:
		v, err = strconv.ParseBool(raw)
	default:
		return zero, false
	}
	if err != nil {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
