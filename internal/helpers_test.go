package internal_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/internal"
	"github.com/dmitrymomot/anvil/pkg/catalog"
	"github.com/dmitrymomot/anvil/pkg/session"
)

func TestTypedParams(t *testing.T) {
	t.Parallel()

	cat := newCatalog(t, nil, catalog.Route{
		Name: "item", Path: "/items/{id}/{ratio}/{flag}", Controller: "item", Actions: []string{"show"},
	})

	var (
		id    int
		big   int64
		ratio float64
		flag  bool
		name  string
		page  int
		limit int
		bad   int
	)
	app := internal.New(
		internal.WithCatalog(cat),
		internal.WithController("item", internal.Actions{
			"show": func(c internal.Context) error {
				id = internal.Param[int](c, "id")
				big = internal.Param[int64](c, "id")
				ratio = internal.Param[float64](c, "ratio")
				flag = internal.Param[bool](c, "flag")
				name = internal.Query[string](c, "name")
				page = internal.QueryDefault(c, "page", 1)
				limit = internal.QueryDefault(c, "limit", 20)
				bad = internal.Query[int](c, "bad")
				return nil
			},
		}),
	)

	serve(app, httptest.NewRequest(http.MethodGet, "/items/42/0.5/true?name=box&limit=abc&bad=x", nil))

	assert.Equal(t, 42, id)
	assert.EqualValues(t, 42, big)
	assert.InDelta(t, 0.5, ratio, 1e-9)
	assert.True(t, flag)
	assert.Equal(t, "box", name)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)
	assert.Zero(t, bad)
}

func TestSessionValueHelper(t *testing.T) {
	t.Parallel()

	type prefs struct {
		Theme string `json:"theme"`
	}

	opts := []internal.Option{internal.WithSession(session.NewMemoryStore())}
	requestVia(t, httptest.NewRequest(http.MethodGet, "/echo", nil), opts, func(c internal.Context) error {
		_, err := internal.SessionValue[string](c, "theme")
		require.ErrorIs(t, err, session.ErrNotFound)

		require.NoError(t, c.InitSession())
		require.NoError(t, c.SetSessionValue("prefs", map[string]any{"theme": "dark"}))

		p, err := internal.SessionValue[prefs](c, "prefs")
		require.NoError(t, err)
		assert.Equal(t, "dark", p.Theme)
		return nil
	})
}
