package main

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/fsmkit/pkg/config"
	"github.com/dmitrymomot/fsmkit/pkg/logger"
	"github.com/dmitrymomot/fsmkit/pkg/mongo"
	"github.com/dmitrymomot/fsmkit/pkg/pg"
	"github.com/dmitrymomot/fsmkit/pkg/record"
	"github.com/dmitrymomot/fsmkit/pkg/redis"
	"github.com/dmitrymomot/fsmkit/pkg/sqlite"
)

// conn is an open backend.
type conn struct {
	store   record.Store
	health  func(context.Context) error
	release func()
}

func noHealthcheck(context.Context) error { return nil }

// openStore connects to the configured backend.
func (a *app) openStore(ctx context.Context) (*conn, error) {
	var opts []config.Option
	if len(a.envFiles) > 0 {
		opts = append(opts, config.WithEnvFiles(a.envFiles...))
	}

	a.log.DebugContext(ctx, "opening record store", logger.Backend(a.cfg.Backend))

	switch a.cfg.Backend {
	case "memory":
		return &conn{store: record.NewMemoryStore(), health: noHealthcheck, release: func() {}}, nil

	case "sqlite":
		var cfg sqlite.Config
		if err := config.Load(&cfg, opts...); err != nil {
			return nil, err
		}
		store, err := sqlite.Open(ctx, cfg, a.log)
		if err != nil {
			return nil, err
		}
		return &conn{store: store, health: store.Healthcheck(), release: a.closer("sqlite", store.Close)}, nil

	case "pg":
		var cfg pg.Config
		if err := config.Load(&cfg, opts...); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx, pool, cfg, a.log); err != nil {
			pool.Close()
			return nil, err
		}
		return &conn{store: pg.NewStore(pool), health: pg.Healthcheck(pool), release: pool.Close}, nil

	case "mongo":
		var cfg mongo.Config
		if err := config.Load(&cfg, opts...); err != nil {
			return nil, err
		}
		store, client, err := mongo.NewStoreFromConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &conn{
			store:   store,
			health:  mongo.Healthcheck(client),
			release: a.closer("mongo", func() error { return client.Disconnect(context.WithoutCancel(ctx)) }),
		}, nil

	case "redis":
		var cfg redis.Config
		if err := config.Load(&cfg, opts...); err != nil {
			return nil, err
		}
		client, err := redis.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &conn{
			store:   redis.NewStore(client, redis.WithKeyPrefix(cfg.KeyPrefix)),
			health:  redis.Healthcheck(client),
			release: a.closer("redis", client.Close),
		}, nil
	}

	return nil, fmt.Errorf("unknown backend %q: use memory, sqlite, pg, mongo or redis", a.cfg.Backend)
}

func (a *app) closer(backend string, closeFn func() error) func() {
	return func() {
		if err := closeFn(); err != nil {
			a.log.Error("failed to close record store", logger.Backend(backend), logger.Error(err))
		}
	}
}
