package routecache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/pkg/routecache"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		prefix  string
		pattern string
		params  map[string]string
		want    string
	}{
		{name: "static", pattern: "/about", want: "/about"},
		{name: "placeholder", pattern: "/users/{id}", params: map[string]string{"id": "42"}, want: "/users/42"},
		{name: "regexp placeholder", pattern: "/posts/{slug:[a-z-]+}", params: map[string]string{"slug": "hello-world"}, want: "/posts/hello-world"},
		{name: "nested quantifier", pattern: "/codes/{code:[0-9]{3}}/x", params: map[string]string{"code": "404"}, want: "/codes/404/x"},
		{name: "escaping", pattern: "/tags/{tag}", params: map[string]string{"tag": "a b/c"}, want: "/tags/a%20b%2Fc"},
		{name: "module prefix", prefix: "/admin", pattern: "/users", want: "/admin/users"},
		{name: "module root", prefix: "/admin", pattern: "/", want: "/admin"},
		{name: "sorted query", pattern: "/search", params: map[string]string{"q": "go", "page": "2"}, want: "/search?page=2&q=go"},
		{name: "wildcard", pattern: "/files/*", params: map[string]string{"*": "docs/read me.md"}, want: "/files/docs/read%20me.md"},
		{name: "wildcard omitted", pattern: "/files/*", want: "/files/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := routecache.Build(tt.prefix, tt.pattern, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	_, err := routecache.Build("", "/users/{id}", nil)
	require.ErrorIs(t, err, routecache.ErrMissingParam)

	_, err = routecache.Build("", "/users/{id}", map[string]string{"id": ""})
	require.ErrorIs(t, err, routecache.ErrMissingParam)

	_, err = routecache.Build("", "/users/{id", map[string]string{"id": "1"})
	require.ErrorIs(t, err, routecache.ErrBadPattern)
}
