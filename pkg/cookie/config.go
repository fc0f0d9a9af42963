package cookie

import (
	"net/http"
	"strings"
)

// Config is the environment form of the manager options.
type Config struct {
	Secret          string   `env:"COOKIE_SECRET"`
	PreviousSecrets []string `env:"COOKIE_PREVIOUS_SECRETS" envSeparator:","`
	Domain          string   `env:"COOKIE_DOMAIN"`
	Path            string   `env:"COOKIE_PATH" envDefault:"/"`
	SameSite        string   `env:"COOKIE_SAME_SITE" envDefault:"lax"`
	Secure          bool     `env:"COOKIE_SECURE" envDefault:"true"`
	HTTPOnly        bool     `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
}

// NewFromConfig creates a manager from cfg; opts are applied after it.
func NewFromConfig(cfg Config, opts ...Option) *Manager {
	base := []Option{
		WithSecret(cfg.Secret),
		WithPreviousSecrets(cfg.PreviousSecrets...),
		WithDomain(cfg.Domain),
		WithSecure(cfg.Secure),
		WithHTTPOnly(cfg.HTTPOnly),
		WithSameSite(ParseSameSite(cfg.SameSite)),
	}
	if cfg.Path != "" {
		base = append(base, WithPath(cfg.Path))
	}
	return New(append(base, opts...)...)
}

// ParseSameSite maps "strict", "none" and "lax" to http.SameSite; anything else is lax.
func ParseSameSite(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
