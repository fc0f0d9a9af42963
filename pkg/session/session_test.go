package session_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/pkg/session"
)

func TestSession_New(t *testing.T) {
	t.Parallel()

	sess := session.New("test-id", "test-token", time.Now().Add(24*time.Hour))

	assert.Equal(t, "test-id", sess.ID)
	assert.Equal(t, "test-token", sess.Token)
	assert.True(t, sess.IsNew())
	assert.True(t, sess.IsDirty())
	assert.NotNil(t, sess.Values)
	assert.False(t, sess.IsExpired())
}

func TestSession_User(t *testing.T) {
	t.Parallel()

	sess := session.New("id", "token", time.Now().Add(time.Hour))
	sess.ClearDirty()
	assert.False(t, sess.IsAuthenticated())

	sess.SetUser("user-123")
	assert.True(t, sess.IsAuthenticated())
	assert.True(t, sess.IsDirty())
	assert.Equal(t, "user-123", *sess.UserID)

	sess.SetUser("")
	assert.Nil(t, sess.UserID)

	empty := ""
	sess.UserID = &empty
	assert.False(t, sess.IsAuthenticated())
}

func TestSession_Values(t *testing.T) {
	t.Parallel()

	sess := session.New("id", "token", time.Now().Add(time.Hour))
	sess.ClearDirty()

	sess.SetValue("theme", "dark")
	assert.True(t, sess.IsDirty())

	v, ok := sess.GetValue("theme")
	require.True(t, ok)
	assert.Equal(t, "dark", v)

	sess.ClearDirty()
	sess.DeleteValue("missing")
	assert.False(t, sess.IsDirty(), "deleting a missing key keeps the session clean")

	sess.DeleteValue("theme")
	assert.True(t, sess.IsDirty())
	_, ok = sess.GetValue("theme")
	assert.False(t, ok)

	sess.SetValue("a", 1)
	sess.SetUser("u")
	sess.ClearDirty()
	sess.Clear()
	assert.True(t, sess.IsDirty())
	assert.Empty(t, sess.Values)
	assert.Nil(t, sess.UserID)
}

func TestSession_Flags(t *testing.T) {
	t.Parallel()

	sess := session.New("id", "token", time.Now().Add(-time.Second))
	assert.True(t, sess.IsExpired())

	sess.ClearNew()
	assert.False(t, sess.IsNew())
	sess.ClearDirty()
	sess.MarkDirty()
	assert.True(t, sess.IsDirty())
}

func TestSession_Clone(t *testing.T) {
	t.Parallel()

	sess := session.New("id", "token", time.Now().Add(time.Hour))
	sess.SetValue("k", "v")
	sess.SetUser("u")

	c := sess.Clone()
	c.SetValue("k", "changed")
	*c.UserID = "other"

	v, _ := sess.GetValue("k")
	assert.Equal(t, "v", v)
	assert.Equal(t, "u", *sess.UserID)
}

func TestValue(t *testing.T) {
	t.Parallel()

	type cart struct {
		ID    string `json:"id"`
		Items int    `json:"items"`
	}

	sess := session.New("id", "token", time.Now().Add(time.Hour))
	sess.SetValue("name", "ann")
	sess.SetValue("cart", cart{ID: "c1", Items: 2})

	name, err := session.Value[string](sess, "name")
	require.NoError(t, err)
	assert.Equal(t, "ann", name)

	_, err = session.Value[int](sess, "name")
	require.ErrorIs(t, err, session.ErrTypeMismatch)

	_, err = session.Value[string](sess, "missing")
	require.ErrorIs(t, err, session.ErrNotFound)

	_, err = session.Value[string](nil, "name")
	require.ErrorIs(t, err, session.ErrNotFound)

	t.Run("after a JSON round trip", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(sess)
		require.NoError(t, err)
		var decoded session.Session
		require.NoError(t, json.Unmarshal(data, &decoded))

		got, err := session.Value[cart](&decoded, "cart")
		require.NoError(t, err)
		assert.Equal(t, cart{ID: "c1", Items: 2}, got)

		decoded.SetValue("count", float64(3))
		n, err := session.Value[int](&decoded, "count")
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})
}

func TestValueOr(t *testing.T) {
	t.Parallel()

	sess := session.New("id", "token", time.Now().Add(time.Hour))
	sess.SetValue("count", 5)

	assert.Equal(t, 5, session.ValueOr(sess, "count", 0))
	assert.Equal(t, 10, session.ValueOr(sess, "missing", 10))
	assert.Equal(t, "x", session.ValueOr(sess, "count", "x"))
}
