package internal_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/internal"
	"github.com/dmitrymomot/anvil/pkg/catalog"
	"github.com/dmitrymomot/anvil/pkg/event"
)

type userKey struct{}

func userController(calls *[]string) internal.Actions {
	record := func(name string, fn internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			*calls = append(*calls, name)
			return fn(c)
		}
	}
	return internal.Actions{
		"load": record("load", func(c internal.Context) error {
			c.Set(userKey{}, "user-"+c.Param("id"))
			return nil
		}),
		"show": record("show", func(c internal.Context) error {
			return c.String(http.StatusOK, internal.ContextValue[string](c, userKey{}))
		}),
		"deny": record("deny", func(c internal.Context) error {
			return internal.ErrForbidden("nope")
		}),
		"touch": record("touch", func(c internal.Context) error {
			return nil
		}),
	}
}

func TestHTTPDispatch(t *testing.T) {
	t.Parallel()

	newApp := func(t *testing.T, calls *[]string) *internal.App {
		cat := newCatalog(t, nil,
			catalog.Route{Name: "user.show", Path: "/users/{id}", Controller: "user", Actions: []string{"load", "show", "touch"}},
			catalog.Route{Name: "user.admin", Path: "/admin/users/{id}", Controller: "user", Actions: []string{"load", "deny", "show"}},
			catalog.Route{Name: "user.ping", Method: http.MethodPost, Path: "/ping", Controller: "user", Actions: []string{"touch"}},
		)
		return internal.New(
			internal.WithCatalog(cat),
			internal.WithController("user", userController(calls)),
		)
	}

	t.Run("actions run in order until one writes", func(t *testing.T) {
		t.Parallel()

		var calls []string
		w := serve(newApp(t, &calls), httptest.NewRequest(http.MethodGet, "/users/42", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-42", w.Body.String())
		assert.Equal(t, []string{"load", "show"}, calls)
	})

	t.Run("an error stops the chain", func(t *testing.T) {
		t.Parallel()

		var calls []string
		w := serve(newApp(t, &calls), httptest.NewRequest(http.MethodGet, "/admin/users/42", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "nope", w.Body.String())
		assert.Equal(t, []string{"load", "deny"}, calls)
	})

	t.Run("a chain that writes nothing answers 204", func(t *testing.T) {
		t.Parallel()

		var calls []string
		w := serve(newApp(t, &calls), httptest.NewRequest(http.MethodPost, "/ping", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("method is part of the route", func(t *testing.T) {
		t.Parallel()

		var calls []string
		w := serve(newApp(t, &calls), httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Empty(t, calls)
	})
}

func TestRouteInfo(t *testing.T) {
	t.Parallel()

	var got catalog.Route
	w := requestVia(t, httptest.NewRequest(http.MethodGet, "/echo", nil), nil, func(c internal.Context) error {
		r, ok := c.Route()
		require.True(t, ok)
		got = r
		return c.NoContent(http.StatusOK)
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "echo", got.Name)
	assert.Equal(t, "echo", got.Controller)
	assert.Equal(t, []string{"run"}, got.Actions)
}

func TestNewPanicsOnUnresolvedCatalog(t *testing.T) {
	t.Parallel()

	route := catalog.Route{Name: "home", Path: "/", Controller: "home", Actions: []string{"index"}}

	t.Run("missing controller", func(t *testing.T) {
		t.Parallel()
		cat := newCatalog(t, nil, route)
		assert.PanicsWithValue(t, `anvil: route "home": controller "home" is not registered`, func() {
			internal.New(internal.WithCatalog(cat))
		})
	})

	t.Run("missing action", func(t *testing.T) {
		t.Parallel()
		cat := newCatalog(t, nil, route)
		assert.Panics(t, func() {
			internal.New(internal.WithCatalog(cat), internal.WithController("home", internal.Actions{}))
		})
	})

	t.Run("missing event listener", func(t *testing.T) {
		t.Parallel()
		cat := newCatalog(t, nil, catalog.Route{
			Name: "user.created", Kind: catalog.KindEvent, Controller: "mailer", Actions: []string{"welcome"},
		})
		assert.Panics(t, func() {
			internal.New(internal.WithCatalog(cat), internal.WithEventController("mailer", internal.Listeners{}))
		})
	})

	t.Run("module not in catalog", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() {
			internal.New(internal.WithModule("admin"))
		})
	})

	t.Run("route hidden by module prefix", func(t *testing.T) {
		t.Parallel()
		cat := newCatalog(t,
			[]catalog.Module{{Name: "admin", Prefix: "/admin"}},
			catalog.Route{Name: "admin.login", Path: "/admin", Controller: "auth", Actions: []string{"login"}},
		)
		assert.PanicsWithValue(t,
			`catalog: path conflict: route "admin.login" path /admin is inside module "admin" prefix /admin`,
			func() {
				internal.New(internal.WithCatalog(cat), internal.WithController("auth", internal.Actions{
					"login": func(c internal.Context) error { return c.NoContent(http.StatusOK) },
				}))
			})
	})
}

func TestModuleDispatch(t *testing.T) {
	t.Parallel()

	cat := newCatalog(t,
		[]catalog.Module{{Name: "admin", Prefix: "/admin", AutoRoute: true}},
		catalog.Route{Name: "admin.dashboard", Path: "/", Module: "admin", Controller: "dashboard", Actions: []string{"index"}},
		catalog.Route{Name: "admin.users", Path: "/users", Module: "admin", Controller: "user", Actions: []string{"list"}},
		catalog.Route{Name: "users", Path: "/users", Controller: "user", Actions: []string{"list"}},
	)

	var mwCalls int
	var mu sync.Mutex
	guard := func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			mu.Lock()
			mwCalls++
			mu.Unlock()
			if c.Header("X-Admin") != "1" {
				return internal.ErrUnauthorized("admins only")
			}
			return next(c)
		}
	}

	app := internal.New(
		internal.WithCatalog(cat),
		internal.WithController("user", internal.Actions{
			"list": func(c internal.Context) error { return c.String(http.StatusOK, "public users") },
		}),
		internal.WithModule("admin",
			internal.WithModuleMiddleware(guard),
			internal.WithModuleController("dashboard", internal.Actions{
				"index": func(c internal.Context) error { return c.String(http.StatusOK, "dashboard") },
			}),
			internal.WithModuleController("user", internal.Actions{
				"list": func(c internal.Context) error { return c.String(http.StatusOK, "admin users") },
				"ban": func(c internal.Context) error {
					r, _ := c.Route()
					return c.String(http.StatusOK, r.Module+" "+r.Controller+" "+strings.Join(r.Actions, ","))
				},
			}),
		),
	)

	admin := func(method, target string) *http.Request {
		req := httptest.NewRequest(method, target, nil)
		req.Header.Set("X-Admin", "1")
		return req
	}

	t.Run("module controllers shadow app controllers", func(t *testing.T) {
		w := serve(app, admin(http.MethodGet, "/admin/users"))
		assert.Equal(t, "admin users", w.Body.String())

		w = serve(app, httptest.NewRequest(http.MethodGet, "/users", nil))
		assert.Equal(t, "public users", w.Body.String())
	})

	t.Run("prefix root", func(t *testing.T) {
		w := serve(app, admin(http.MethodGet, "/admin"))
		assert.Equal(t, "dashboard", w.Body.String())
	})

	t.Run("module middleware guards the prefix", func(t *testing.T) {
		w := serve(app, httptest.NewRequest(http.MethodGet, "/admin/users", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("autoroute resolves controller and action", func(t *testing.T) {
		w := serve(app, admin(http.MethodPost, "/admin/user/ban"))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "admin user ban", w.Body.String())
	})

	t.Run("autoroute answers 404 for unknown names", func(t *testing.T) {
		w := serve(app, admin(http.MethodGet, "/admin/user/missing"))
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = serve(app, admin(http.MethodGet, "/admin/nobody/list"))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("autoroute does not reach app controllers", func(t *testing.T) {
		cat := newCatalog(t, []catalog.Module{{Name: "api", Prefix: "/api", AutoRoute: true}})
		app := internal.New(
			internal.WithCatalog(cat),
			internal.WithController("user", internal.Actions{
				"list": func(c internal.Context) error { return c.String(http.StatusOK, "leak") },
			}),
		)
		w := serve(app, httptest.NewRequest(http.MethodGet, "/api/user/list", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestURL(t *testing.T) {
	t.Parallel()

	cat := newCatalog(t,
		[]catalog.Module{{Name: "admin", Prefix: "/admin"}},
		catalog.Route{Name: "user.show", Path: "/users/{id}", Controller: "user", Actions: []string{"load", "show"}},
		catalog.Route{Name: "admin.user", Path: "/users/{id}/edit", Module: "admin", Controller: "staff", Actions: []string{"edit"}},
	)
	noop := func(c internal.Context) error { return nil }
	app := internal.New(
		internal.WithCatalog(cat),
		internal.WithController("user", internal.Actions{"load": noop, "show": noop}),
		internal.WithModule("admin", internal.WithModuleController("staff", internal.Actions{"edit": noop})),
	)
	ctx := context.Background()

	u, err := app.URL(ctx, "user", "show", map[string]string{"id": "7", "tab": "posts"})
	require.NoError(t, err)
	assert.Equal(t, "/users/7?tab=posts", u)

	u, err = app.URL(ctx, "staff", "edit", map[string]string{"id": "7"})
	require.NoError(t, err)
	assert.Equal(t, "/admin/users/7/edit", u)

	_, err = app.URL(ctx, "user", "delete", nil)
	require.Error(t, err)
}

func TestEventDispatch(t *testing.T) {
	t.Parallel()

	cat := newCatalog(t, nil,
		catalog.Route{Name: "signup", Method: http.MethodPost, Path: "/signup", Controller: "auth", Actions: []string{"signup"}},
		catalog.Route{Name: "user.created", Kind: catalog.KindEvent, Controller: "mailer", Actions: []string{"welcome", "audit"}},
	)

	type created struct {
		Email string `json:"email"`
	}

	var (
		mu  sync.Mutex
		got []string
	)
	listen := func(tag string) event.Listener {
		return func(_ context.Context, e event.Event) error {
			p, err := event.Decode[created](e)
			if err != nil {
				return err
			}
			mu.Lock()
			got = append(got, tag+":"+p.Email)
			mu.Unlock()
			return nil
		}
	}

	app := internal.New(
		internal.WithCatalog(cat),
		internal.WithController("auth", internal.Actions{
			"signup": func(c internal.Context) error {
				if err := c.Dispatch("user.created", created{Email: "a@b.c"}); err != nil {
					return err
				}
				return c.NoContent(http.StatusCreated)
			},
		}),
		internal.WithEventController("mailer", internal.Listeners{
			"welcome": listen("welcome"),
			"audit":   listen("audit"),
		}),
	)

	w := serve(app, httptest.NewRequest(http.MethodPost, "/signup", nil))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"welcome:a@b.c", "audit:a@b.c"}, got)
	assert.Equal(t, []string{"welcome", "audit"}, app.Bus().ListenerIDs("user.created"))

	err := app.Dispatch(context.Background(), "nobody.listens", nil)
	require.ErrorIs(t, err, event.ErrNoListeners)
}

func TestDispatchTxWithoutQueue(t *testing.T) {
	t.Parallel()

	var err error
	requestVia(t, httptest.NewRequest(http.MethodGet, "/echo", nil), nil, func(c internal.Context) error {
		err = c.DispatchTx(nil, "user.created", nil)
		return nil
	})
	require.ErrorIs(t, err, internal.ErrEventQueueNotConfigured)
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	cat := newCatalog(t, nil, catalog.Route{
		Name: "cleanup", Kind: catalog.KindEvent, Controller: "jobs", Actions: []string{"purge"}, Schedule: "@hourly",
	})
	app := internal.New(
		internal.WithCatalog(cat),
		internal.WithEventController("jobs", internal.Listeners{
			"purge": func(context.Context, event.Event) error { return nil },
		}),
	)

	ctx := context.Background()
	require.NoError(t, app.Start(ctx))
	require.ErrorIs(t, app.Start(ctx), event.ErrAlreadyStarted)
	require.NoError(t, app.Stop(ctx))
}

func TestStopWithoutStart(t *testing.T) {
	t.Parallel()

	app := internal.New()
	assert.NoError(t, app.Stop(context.Background()))
}
