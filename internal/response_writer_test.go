package internal_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/internal"
)

func TestResponseWriter(t *testing.T) {
	t.Parallel()

	t.Run("tracks status and size", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		rw := internal.NewResponseWriter(rec)
		assert.False(t, rw.Written())
		assert.Equal(t, http.StatusOK, rw.Status())

		rw.WriteHeader(http.StatusAccepted)
		rw.WriteHeader(http.StatusTeapot)
		n, err := rw.Write([]byte("hello"))
		require.NoError(t, err)

		assert.Equal(t, 5, n)
		assert.True(t, rw.Written())
		assert.Equal(t, http.StatusAccepted, rw.Status())
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.EqualValues(t, 5, rw.Size())
	})

	t.Run("implicit 200 on write", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		rw := internal.NewResponseWriter(rec)
		_, _ = rw.Write([]byte("x"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("hooks run once before the header", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		rw := internal.NewResponseWriter(rec)

		calls := 0
		rw.OnBeforeWrite(func() {
			calls++
			rw.Header().Set("X-Hook", "ran")
		})
		rw.WriteHeader(http.StatusCreated)
		_, _ = rw.Write([]byte("body"))
		rw.OnBeforeWrite(func() { calls += 10 })
		rw.Flush()

		assert.Equal(t, 1, calls)
		assert.Equal(t, "ran", rec.Header().Get("X-Hook"))
	})

	t.Run("wrapping twice reuses the wrapper", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		rw := internal.NewResponseWriter(rec)
		assert.Same(t, rw, internal.NewResponseWriter(rw))
		assert.Equal(t, http.ResponseWriter(rec), rw.Unwrap())
	})

	t.Run("hijack unsupported", func(t *testing.T) {
		t.Parallel()

		_, _, err := internal.NewResponseWriter(httptest.NewRecorder()).Hijack()
		assert.ErrorIs(t, err, http.ErrNotSupported)
	})
}
