// Package config reads application settings from the environment.
//
// Settings of the other packages (db, redis, logger, cookie) are embedded
// as they are, so each keeps its own variable names:
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	pool, err := db.Connect(ctx, cfg.DB)
package config
