// Package cookie reads and writes HTTP cookies: plain, signed (HMAC-SHA256),
// encrypted (AES-256-GCM) and single-read flash values.
//
//	m := cookie.New(cookie.WithSecret(os.Getenv("COOKIE_SECRET")), cookie.WithSecure(true))
//
//	m.Set(w, "theme", "dark", 86400)
//	err := m.SetSigned(w, "uid", userID, 86400)
//	uid, err := m.GetSigned(r, "uid")
//
//	_ = m.SetFlash(w, "notice", "Saved")
//	var notice string
//	err = m.Flash(w, r, "notice", &notice)
//
// Signatures cover the cookie name, so a value signed for one cookie is
// rejected when replayed under another. Signing and encryption use separate
// keys derived from the secret. Secrets listed with [WithPreviousSecrets]
// still verify and decrypt, which allows rotation without logging users out.
//
// Signed and encrypted operations return [ErrNoSecret] when no secret is
// configured and [ErrBadSecret] when it is shorter than 32 bytes.
package cookie
