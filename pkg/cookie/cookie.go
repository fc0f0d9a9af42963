package cookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

const minSecretLen = 32

// FlashPrefix is prepended to flash keys to form the cookie name.
const FlashPrefix = "flash_"

// keys holds the derived keys of one secret.
type keys struct {
	sign []byte
	enc  [32]byte
}

func deriveKeys(secret string) keys {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("anvil/cookie/sign"))
	sign := mac.Sum(nil)

	mac.Reset()
	mac.Write([]byte("anvil/cookie/encrypt"))
	var enc [32]byte
	copy(enc[:], mac.Sum(nil))

	return keys{sign: sign, enc: enc}
}

// Manager reads and writes cookies with shared attributes.
type Manager struct {
	secret   string
	previous []string
	keyring  []keys // current first
	domain   string
	path     string
	sameSite http.SameSite
	secure   bool
	httpOnly bool
}

// Option configures the Manager.
type Option func(*Manager)

// New creates a Manager. Defaults: path "/", HttpOnly, SameSite=Lax.
func New(opts ...Option) *Manager {
	m := &Manager{
		path:     "/",
		httpOnly: true,
		sameSite: http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(m)
	}
	if len(m.secret) >= minSecretLen {
		m.keyring = append(m.keyring, deriveKeys(m.secret))
		for _, s := range m.previous {
			if len(s) >= minSecretLen {
				m.keyring = append(m.keyring, deriveKeys(s))
			}
		}
	}
	return m
}

// WithSecret sets the secret for signing and encryption. It must be 32+ bytes.
func WithSecret(secret string) Option {
	return func(m *Manager) {
		m.secret = secret
	}
}

// WithPreviousSecrets adds retired secrets accepted when reading.
func WithPreviousSecrets(secrets ...string) Option {
	return func(m *Manager) {
		m.previous = append(m.previous, secrets...)
	}
}

func WithDomain(domain string) Option {
	return func(m *Manager) {
		m.domain = domain
	}
}

func WithPath(path string) Option {
	return func(m *Manager) {
		m.path = path
	}
}

func WithSecure(secure bool) Option {
	return func(m *Manager) {
		m.secure = secure
	}
}

func WithHTTPOnly(httpOnly bool) Option {
	return func(m *Manager) {
		m.httpOnly = httpOnly
	}
}

func WithSameSite(ss http.SameSite) Option {
	return func(m *Manager) {
		m.sameSite = ss
	}
}

// Get returns a plain cookie value.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrNotFound
		}
		return "", err
	}
	return c.Value, nil
}

// Set writes a plain cookie. maxAge follows http.Cookie: 0 is a session cookie.
func (m *Manager) Set(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, m.cookie(name, value, maxAge))
}

// Delete expires a cookie.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, m.cookie(name, "", -1))
}

// GetSigned returns the value of a signed cookie.
func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	if err := m.ready(); err != nil {
		return "", err
	}

	raw, err := m.Get(r, name)
	if err != nil {
		return "", err
	}

	encValue, encSig, ok := strings.Cut(raw, ".")
	if !ok {
		return "", ErrBadSig
	}
	value, err := base64.RawURLEncoding.DecodeString(encValue)
	if err != nil {
		return "", ErrBadSig
	}
	sig, err := base64.RawURLEncoding.DecodeString(encSig)
	if err != nil {
		return "", ErrBadSig
	}

	for _, k := range m.keyring {
		if hmac.Equal(sig, sign(k.sign, name, value)) {
			return string(value), nil
		}
	}
	return "", ErrBadSig
}

// SetSigned writes a cookie whose value is readable by the client but tamper-evident.
func (m *Manager) SetSigned(w http.ResponseWriter, name, value string, maxAge int) error {
	if err := m.ready(); err != nil {
		return err
	}

	sig := sign(m.keyring[0].sign, name, []byte(value))
	encoded := base64.RawURLEncoding.EncodeToString([]byte(value)) +
		"." + base64.RawURLEncoding.EncodeToString(sig)

	http.SetCookie(w, m.cookie(name, encoded, maxAge))
	return nil
}

// GetEncrypted returns the value of an encrypted cookie.
func (m *Manager) GetEncrypted(r *http.Request, name string) (string, error) {
	if err := m.ready(); err != nil {
		return "", err
	}

	raw, err := m.Get(r, name)
	if err != nil {
		return "", err
	}
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return "", ErrDecrypt
	}

	for _, k := range m.keyring {
		if plaintext, err := open(k.enc, name, data); err == nil {
			return string(plaintext), nil
		}
	}
	return "", ErrDecrypt
}

// SetEncrypted writes a cookie whose value is hidden from the client.
func (m *Manager) SetEncrypted(w http.ResponseWriter, name, value string, maxAge int) error {
	if err := m.ready(); err != nil {
		return err
	}

	ciphertext, err := seal(m.keyring[0].enc, name, []byte(value))
	if err != nil {
		return err
	}
	http.SetCookie(w, m.cookie(name, base64.RawURLEncoding.EncodeToString(ciphertext), maxAge))
	return nil
}

// Flash decodes the flash value stored under key into dest and deletes it.
func (m *Manager) Flash(w http.ResponseWriter, r *http.Request, key string, dest any) error {
	name := FlashPrefix + key
	raw, err := m.GetEncrypted(r, name)
	if err != nil {
		return err
	}
	m.Delete(w, name)
	return json.Unmarshal([]byte(raw), dest)
}

// SetFlash stores value under key until the next Flash call.
func (m *Manager) SetFlash(w http.ResponseWriter, key string, value any) error {
	if err := m.ready(); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return m.SetEncrypted(w, FlashPrefix+key, string(data), 0)
}

func (m *Manager) ready() error {
	switch {
	case m.secret == "":
		return ErrNoSecret
	case len(m.keyring) == 0:
		return ErrBadSecret
	default:
		return nil
	}
}

func (m *Manager) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.path,
		Domain:   m.domain,
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: m.httpOnly,
		SameSite: m.sameSite,
	}
}

func sign(key []byte, name string, value []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(name))
	mac.Write([]byte{0})
	mac.Write(value)
	return mac.Sum(nil)
}

func newAEAD(key [32]byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// seal encrypts with the cookie name as additional data.
func seal(key [32]byte, name string, plaintext []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, []byte(name)), nil
}

func open(key [32]byte, name string, data []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(data) < aead.NonceSize() {
		return nil, ErrDecrypt
	}
	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, []byte(name))
}
