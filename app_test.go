package anvil_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil"
	"github.com/dmitrymomot/anvil/middlewares"
)

const catalogINI = `
[module.admin]
prefix = /admin

[route.home]
path = /
controller = page
actions = home

[route.user.show]
path = /users/{id}
controller = user
actions = load

[route.admin.stats]
path = /stats
module = admin
controller = stats
actions = index

[event.user.viewed]
controller = audit
actions = record
`

const catalogOverlay = `
[route.user.show]
actions = show
`

const catalogYAML = `
routes:
  user.edit:
    method: POST
    path: /users/{id}
    controller: user
    actions: [load, update]
`

type pinger struct{}

func (pinger) Routes(r anvil.Router) {
	r.GET("/ping", func(c anvil.Context) error { return c.String(http.StatusOK, "pong") })
}

func newTestApp(t *testing.T, viewed chan<- string) *anvil.App {
	t.Helper()

	fsys := fstest.MapFS{
		"routes.ini":  {Data: []byte(catalogINI)},
		"overlay.ini": {Data: []byte(catalogOverlay)},
		"routes.yaml": {Data: []byte(catalogYAML)},
	}
	cat, err := anvil.LoadCatalogFS(fsys, "routes.ini", "overlay.ini", "routes.yaml")
	require.NoError(t, err)

	type userKey struct{}
	return anvil.New(
		anvil.WithCatalog(cat),
		anvil.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
		anvil.WithHandlers(pinger{}),
		anvil.WithHealthChecks(),
		anvil.WithController("page", anvil.Actions{
			"home": func(c anvil.Context) error {
				u, err := c.URL("user", "show", map[string]string{"id": "1"})
				if err != nil {
					return err
				}
				return c.String(http.StatusOK, u)
			},
		}),
		anvil.WithController("user", anvil.Actions{
			"load": func(c anvil.Context) error {
				if anvil.Param[int](c, "id") == 0 {
					return anvil.ErrNotFound("no such user")
				}
				c.Set(userKey{}, c.Param("id"))
				return nil
			},
			"show": func(c anvil.Context) error {
				id := anvil.ContextValue[string](c, userKey{})
				if err := c.Dispatch("user.viewed", map[string]string{"id": id}); err != nil {
					return err
				}
				return c.String(http.StatusOK, "user "+id)
			},
			"update": func(c anvil.Context) error {
				return c.Redirect(http.StatusSeeOther, "/users/"+c.Param("id"))
			},
		}),
		anvil.WithModule("admin", anvil.WithModuleController("stats", anvil.Actions{
			"index": func(c anvil.Context) error { panic("stats exploded") },
		})),
		anvil.WithEventController("audit", anvil.Listeners{
			"record": func(_ context.Context, e anvil.Event) error {
				p, err := anvil.DecodeEvent[map[string]string](e)
				if err != nil {
					return err
				}
				viewed <- p["id"]
				return nil
			},
		}),
	)
}

func TestApp(t *testing.T) {
	t.Parallel()

	viewed := make(chan string, 1)
	app := newTestApp(t, viewed)
	t.Cleanup(func() { _ = app.Stop(context.Background()) })

	do := func(method, target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(method, target, nil))
		return w
	}

	t.Run("merged actions and events", func(t *testing.T) {
		w := do(http.MethodGet, "/users/7")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user 7", w.Body.String())
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.Equal(t, "7", <-viewed)
	})

	t.Run("YAML routes", func(t *testing.T) {
		w := do(http.MethodPost, "/users/7")
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/users/7", w.Header().Get("Location"))
	})

	t.Run("errors stop the chain", func(t *testing.T) {
		w := do(http.MethodGet, "/users/abc")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "no such user", w.Body.String())
	})

	t.Run("URL generation", func(t *testing.T) {
		w := do(http.MethodGet, "/")
		assert.Equal(t, "/users/1", w.Body.String())
	})

	t.Run("module route panics are recovered", func(t *testing.T) {
		w := do(http.MethodGet, "/admin/stats")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.False(t, strings.Contains(w.Body.String(), "exploded"))
	})

	t.Run("hand-written handlers and health", func(t *testing.T) {
		assert.Equal(t, "pong", do(http.MethodGet, "/ping").Body.String())
		assert.Equal(t, http.StatusOK, do(http.MethodGet, "/health/live").Code)
		assert.Equal(t, http.StatusOK, do(http.MethodGet, "/health/ready").Code)
	})

	t.Run("catalog access", func(t *testing.T) {
		r, ok := app.Catalog().Route("user.show")
		require.True(t, ok)
		assert.Equal(t, []string{"load", "show"}, r.Actions)
		assert.True(t, app.Bus().Has("user.viewed"))
	})
}

func TestAppRun(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var started, stopped bool

	done := make(chan error, 1)
	go func() {
		done <- anvil.New().Run("127.0.0.1:0",
			anvil.WithContext(ctx),
			anvil.StartupHook(func(context.Context) error { started = true; return nil }),
			anvil.ShutdownHook(func(context.Context) error { stopped = true; return nil }),
			anvil.ShutdownTimeout(time.Second),
		)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.True(t, started)
	assert.True(t, stopped)
}

func TestSeverityForCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, anvil.SeverityError, anvil.SeverityForCode(http.StatusInternalServerError))
	assert.Equal(t, anvil.SeverityNotice, anvil.SeverityForCode(http.StatusBadRequest))
	assert.Equal(t, anvil.SeverityCritical, anvil.NewError(http.StatusTeapot, "", anvil.WithSeverity(anvil.SeverityCritical)).Severity)
}
