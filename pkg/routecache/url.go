package routecache

import (
	"fmt"
	"net/url"
	"strings"
)

// Build expands a chi route pattern with params and joins it to prefix.
// Placeholders are {name} or {name:regexp}; a trailing * takes params["*"].
// Values are path-escaped, wildcard values keep their slashes.
// Params not used by the pattern are encoded as a query string sorted by key.
func Build(prefix, pattern string, params map[string]string) (string, error) {
	used := make(map[string]bool, len(params))

	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		switch ch := pattern[i]; ch {
		case '{':
			end, err := closingBrace(pattern, i)
			if err != nil {
				return "", err
			}
			name, _, _ := strings.Cut(pattern[i+1:end], ":")
			name = strings.TrimSpace(name)
			v, ok := params[name]
			if !ok || v == "" {
				return "", fmt.Errorf("%w: %q in %s", ErrMissingParam, name, pattern)
			}
			used[name] = true
			b.WriteString(url.PathEscape(v))
			i = end
		case '*':
			if v, ok := params["*"]; ok {
				used["*"] = true
				b.WriteString(escapeWildcard(v))
			}
		default:
			b.WriteByte(ch)
		}
	}

	path := b.String()
	if prefix != "" {
		if path == "/" {
			path = prefix
		} else {
			path = prefix + path
		}
	}

	q := url.Values{}
	for k, v := range params {
		if !used[k] {
			q.Set(k, v)
		}
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return path, nil
}

// closingBrace returns the index of the brace that closes the one at start,
// allowing nested braces inside regexp quantifiers.
func closingBrace(pattern string, start int) (int, error) {
	depth := 0
	for i := start; i < len(pattern); i++ {
		switch pattern[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: unclosed placeholder in %s", ErrBadPattern, pattern)
}

func escapeWildcard(v string) string {
	parts := strings.Split(strings.TrimPrefix(v, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
