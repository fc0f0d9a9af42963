// Package middlewares provides HTTP middleware for anvil applications.
//
// RequestID assigns an ID to each request, reusing an upstream X-Request-ID
// when present. Pair it with RequestIDExtractor so every log record made with
// the request context carries request_id:
//
//	app := anvil.New(
//	    anvil.WithLogger("api", middlewares.RequestIDExtractor()),
//	    anvil.WithMiddleware(
//	        middlewares.RequestID(),
//	        middlewares.Recover(),
//	    ),
//	)
//
// Recover converts a panic into a 500 error of critical severity that wraps a
// PanicError, so the error handler logs it at the critical level:
//
//	anvil.WithErrorHandler(func(c anvil.Context, err error) error {
//	    if pe, ok := middlewares.AsPanicError(err); ok {
//	        c.LogError("panic", "value", pe.Value)
//	    }
//	    return anvil.DefaultErrorHandler(c, err)
//	})
//
// Register RequestID before Recover so recovered panics carry the request ID.
package middlewares
