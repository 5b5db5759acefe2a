package main

import (
	"context"
	"fmt"

	"github.com/flowgraph/flowchart/internal/adapters/repository/memory"
	"github.com/flowgraph/flowchart/internal/adapters/repository/postgres"
	"github.com/flowgraph/flowchart/internal/adapters/repository/redis"
	"github.com/flowgraph/flowchart/internal/adapters/repository/sqlite"
	"github.com/flowgraph/flowchart/pkg/flowchart"
	"github.com/flowgraph/flowchart/pkg/serialization"
)

// DefaultSQLitePath is used when the sqlite driver has no DSN.
const DefaultSQLitePath = "flowchart.db"

// openStore connects the configured document store. The returned func
// releases it.
func openStore(ctx context.Context, cfg StoreConfig, s *serialization.Serializer) (flowchart.Store, func(), error) {
	switch cfg.Driver {
	case DriverMemory:
		return memory.New(memory.Config{MaxBytes: cfg.MaxBytes, Serializer: s}), func() {}, nil
	case DriverSQLite:
		path := cfg.DSN
		if path == "" {
			path = DefaultSQLitePath
		}
		store, err := sqlite.Open(ctx, path, s)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case DriverPostgres:
		store, err := postgres.Connect(ctx, cfg.DSN, s)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case DriverRedis:
		opts := []redis.Option{redis.WithPrefix(cfg.Prefix)}
		if cfg.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.TTL))
		}
		store, err := redis.Connect(ctx, cfg.DSN, s, opts...)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", errUnknownDriver, cfg.Driver)
}
