// Package pg provides PostgreSQL connectivity and a record.Store on top of pgx/v5.
//
// Connect opens a pgxpool.Pool with retries, Migrate applies the embedded
// goose migrations that create the fsm_records table, and Healthcheck returns
// a ping closure for readiness probes.
//
// Store keeps every record as one jsonb document keyed by (kind, id). Single
// field updates use the jsonb || operator so concurrent writers of different
// attributes do not overwrite each other's persisted values.
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//	    return err
//	}
//	store := pg.NewStore(pool)
package pg
