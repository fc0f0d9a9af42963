// Package logger is the framework's logging facade over log/slog.
//
// It adds three things to slog: context extractors that copy request-scoped
// values (request ID, route name) into every record, a fan-out handler, and
// optional Sentry reporting.
//
//	log := logger.NewWithConfig(logger.Config{Level: "debug", Format: "text"},
//	    middlewares.RequestIDExtractor(),
//	)
//	log.InfoContext(ctx, "route dispatched", slog.String("route", "user.show"))
//
// When SENTRY_DSN is empty, [NewWithSentry] logs to stdout only, so the same
// wiring works in development.
package logger
