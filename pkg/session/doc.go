// Package session holds server-side session state and the stores that persist it.
//
// A Session tracks whether it is new and whether it changed since it was
// loaded, so the HTTP layer saves only dirty sessions:
//
//	sess.SetValue("cart", cartID)
//	if sess.IsDirty() { _ = store.Update(ctx, sess) }
//
//	id, err := session.Value[string](sess, "cart")
//
// Three stores are provided: MemoryStore for tests and single-process apps,
// RedisStore (entries expire with the session) and PostgresStore (schema
// applied with Migrate). Values survive a JSON round trip in the persistent
// stores; Value converts them back to the requested type.
package session
