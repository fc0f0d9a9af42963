package internal

import (
	"fmt"
	"strings"
)

// ExtractorSource reads one candidate value from a request.
type ExtractorSource = func(Context) (string, bool)

// Extractor tries sources in order and returns the first non-empty value.
type Extractor struct {
	sources []ExtractorSource
}

func NewExtractor(sources ...ExtractorSource) Extractor {
	return Extractor{sources: sources}
}

func (e Extractor) Extract(c Context) (string, bool) {
	for _, src := range e.sources {
		if v, ok := src(c); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func present(v string) (string, bool) {
	return v, v != ""
}

func presentErr(v string, err error) (string, bool) {
	if err != nil {
		return "", false
	}
	return present(v)
}

func FromHeader(name string) ExtractorSource {
	return func(c Context) (string, bool) { return present(c.Header(name)) }
}

func FromQuery(name string) ExtractorSource {
	return func(c Context) (string, bool) { return present(c.Query(name)) }
}

func FromParam(name string) ExtractorSource {
	return func(c Context) (string, bool) { return present(c.Param(name)) }
}

func FromForm(name string) ExtractorSource {
	return func(c Context) (string, bool) { return present(c.Form(name)) }
}

func FromCookie(name string) ExtractorSource {
	return func(c Context) (string, bool) { return presentErr(c.Cookie(name)) }
}

func FromCookieSigned(name string) ExtractorSource {
	return func(c Context) (string, bool) { return presentErr(c.CookieSigned(name)) }
}

func FromCookieEncrypted(name string) ExtractorSource {
	return func(c Context) (string, bool) { return presentErr(c.CookieEncrypted(name)) }
}

// FromSession reads a session value; non-string values are formatted with fmt.Sprint.
func FromSession(key string) ExtractorSource {
	return func(c Context) (string, bool) {
		val, err := c.SessionValue(key)
		if err != nil || val == nil {
			return "", false
		}
		if s, ok := val.(string); ok {
			return present(s)
		}
		return present(fmt.Sprint(val))
	}
}

// FromRoute reads the name of the matched catalog route.
func FromRoute() ExtractorSource {
	return func(c Context) (string, bool) {
		r, ok := c.Route()
		if !ok {
			return "", false
		}
		return present(r.Name)
	}
}

// FromBearerToken reads the token of an "Authorization: Bearer" header.
func FromBearerToken() ExtractorSource {
	return func(c Context) (string, bool) {
		auth := c.Header("Authorization")
		if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
			return "", false
		}
		return present(auth[7:])
	}
}
