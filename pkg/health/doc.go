// Package health serves liveness and readiness endpoints.
//
// LivenessHandler always answers 200. ReadinessHandler runs named checks
// concurrently under a timeout and answers 503 if any fails:
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//	    "postgres": db.Healthcheck(pool),
//	    "redis":    redis.Healthcheck(client),
//	    "events":   event.Healthcheck(queue),
//	}, health.WithTimeout(3*time.Second)))
//
// Responses are plain text ("OK" or "Service Unavailable") unless the client
// sends Accept: application/json or ?format=json, which returns the per-check
// report. Run executes the same checks outside HTTP, e.g. from a CLI.
package health
