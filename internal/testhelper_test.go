package internal_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/internal"
	"github.com/dmitrymomot/anvil/pkg/catalog"
)

// newCatalog builds a catalog from modules and routes, failing the test on error.
func newCatalog(t *testing.T, modules []catalog.Module, routes ...catalog.Route) *catalog.Catalog {
	t.Helper()

	cat := catalog.New()
	for _, m := range modules {
		require.NoError(t, cat.AddModule(m))
	}
	for _, r := range routes {
		require.NoError(t, cat.Add(r))
	}
	return cat
}

func serve(app *internal.App, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

// requestVia serves req through an app whose only route runs fn.
func requestVia(t *testing.T, req *http.Request, opts []internal.Option, fn func(c internal.Context) error) *httptest.ResponseRecorder {
	t.Helper()

	cat := newCatalog(t, nil, catalog.Route{
		Name:       "echo",
		Method:     req.Method,
		Path:       req.URL.Path,
		Controller: "echo",
		Actions:    []string{"run"},
	})
	opts = append(opts,
		internal.WithCatalog(cat),
		internal.WithController("echo", internal.Actions{"run": fn}),
	)
	return serve(internal.New(opts...), req)
}

// cookiesOf copies the cookies set on w onto a new request.
func cookiesOf(w *httptest.ResponseRecorder, method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge >= 0 {
			req.AddCookie(c)
		}
	}
	return req
}
