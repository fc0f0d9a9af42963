package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/internal"
	"github.com/dmitrymomot/anvil/pkg/catalog"
)

// serveWith runs h behind mw on a single-route app and returns the recorder.
func serveWith(t *testing.T, req *http.Request, opts []internal.Option, h internal.HandlerFunc, mw ...internal.Middleware) *httptest.ResponseRecorder {
	t.Helper()

	cat := catalog.New()
	require.NoError(t, cat.Add(catalog.Route{
		Name: "echo", Method: req.Method, Path: "/", Controller: "echo", Actions: []string{"run"},
	}))

	opts = append(opts,
		internal.WithCatalog(cat),
		internal.WithController("echo", internal.Actions{"run": h}),
		internal.WithMiddleware(mw...),
	)

	w := httptest.NewRecorder()
	internal.New(opts...).ServeHTTP(w, req)
	return w
}
