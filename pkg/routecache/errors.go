package routecache

import "errors"

var (
	ErrRouteNotFound = errors.New("routecache: no route for controller/action")
	ErrMissingParam  = errors.New("routecache: missing path parameter")
	ErrBadPattern    = errors.New("routecache: malformed route pattern")
)
