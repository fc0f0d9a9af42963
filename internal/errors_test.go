package internal_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/internal"
)

func TestSeverity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		severity internal.Severity
		name     string
		level    slog.Level
	}{
		{internal.SeverityDebug, "debug", slog.LevelDebug},
		{internal.SeverityInfo, "info", slog.LevelInfo},
		{internal.SeverityNotice, "notice", slog.LevelInfo},
		{internal.SeverityWarning, "warning", slog.LevelWarn},
		{internal.SeverityError, "error", slog.LevelError},
		{internal.SeverityCritical, "critical", internal.LevelCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.name, tt.severity.String())
		assert.Equal(t, tt.level, tt.severity.Level(), tt.name)
	}

	assert.Equal(t, internal.SeverityError, internal.SeverityForCode(http.StatusBadGateway))
	assert.Equal(t, internal.SeverityNotice, internal.SeverityForCode(http.StatusNotFound))
	assert.Equal(t, internal.SeverityInfo, internal.SeverityForCode(http.StatusFound))
}

func TestHTTPError(t *testing.T) {
	t.Parallel()

	cause := errors.New("db down")
	err := internal.ErrServiceUnavailable("try later",
		internal.WithError(cause),
		internal.WithDetail("maintenance"),
		internal.WithErrorCode("maint"),
		internal.WithSeverity(internal.SeverityCritical),
	)

	assert.Equal(t, "try later", err.Error())
	assert.Equal(t, http.StatusServiceUnavailable, err.StatusCode())
	assert.Equal(t, internal.SeverityCritical, err.Severity)
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", err))
	require.True(t, internal.IsHTTPError(wrapped))
	assert.Same(t, err, internal.AsHTTPError(wrapped))

	assert.False(t, internal.IsHTTPError(cause))
	assert.Nil(t, internal.AsHTTPError(nil))

	assert.Equal(t, "Not Found", internal.NewHTTPError(http.StatusNotFound, "").Error())
	assert.Equal(t, internal.SeverityNotice, internal.ErrNotFound("x").Severity)
	assert.Equal(t, internal.SeverityError, internal.ErrInternal("x").Severity)
}

func TestDefaultErrorHandler(t *testing.T) {
	t.Parallel()

	t.Run("plain error becomes 500 without leaking", func(t *testing.T) {
		t.Parallel()

		w := requestVia(t, httptest.NewRequest(http.MethodGet, "/echo", nil), nil, func(c internal.Context) error {
			return errors.New("secret connection string")
		})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "secret")
	})

	t.Run("JSON when asked", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/echo", nil)
		req.Header.Set("Accept", "application/json")
		w := requestVia(t, req, nil, func(c internal.Context) error {
			return c.Error(http.StatusConflict, "taken", internal.WithErrorCode("email_taken"))
		})

		require.Equal(t, http.StatusConflict, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "taken", body["error"])
		assert.Equal(t, "email_taken", body["code"])
		assert.EqualValues(t, http.StatusConflict, body["status"])
	})

	t.Run("logged at severity level with route name", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		requestVia(t, httptest.NewRequest(http.MethodGet, "/echo", nil),
			[]internal.Option{internal.WithCustomLogger(log)},
			func(c internal.Context) error {
				return internal.ErrBadRequest("bad", internal.WithSeverity(internal.SeverityWarning))
			})

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "WARN", rec["level"])
		assert.Equal(t, "echo", rec["route"])
		assert.Equal(t, "warning", rec["severity"])
	})

	t.Run("custom handler", func(t *testing.T) {
		t.Parallel()

		w := requestVia(t, httptest.NewRequest(http.MethodGet, "/echo", nil),
			[]internal.Option{internal.WithErrorHandler(func(c internal.Context, err error) error {
				return c.String(http.StatusTeapot, "custom: "+err.Error())
			})},
			func(c internal.Context) error { return errors.New("boom") })

		assert.Equal(t, http.StatusTeapot, w.Code)
		assert.Equal(t, "custom: boom", w.Body.String())
	})

	t.Run("error after write is only logged", func(t *testing.T) {
		t.Parallel()

		w := requestVia(t, httptest.NewRequest(http.MethodGet, "/echo", nil), nil, func(c internal.Context) error {
			_ = c.String(http.StatusOK, "partial")
			return errors.New("late")
		})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "partial", w.Body.String())
	})
}
