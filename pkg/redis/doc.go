// Package redis opens go-redis clients with startup retries and exposes
// health check and shutdown hooks for the application run loop.
//
//	client, err := redis.Open(ctx, cfg.Redis)
//	if err != nil {
//	    return err
//	}
//	app.Run(addr,
//	    anvil.ShutdownHook(redis.Shutdown(client)),
//	)
//
// Only redis:// and rediss:// URLs are accepted.
package redis
