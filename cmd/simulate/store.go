package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"cashflow-lab/internal/storage"
	chstore "cashflow-lab/internal/storage/clickhouse"
	"cashflow-lab/internal/storage/memory"
	"cashflow-lab/internal/storage/migrations"
	pgstore "cashflow-lab/internal/storage/postgres"
)

type storeOptions struct {
	PostgresDSN   string
	ClickHouseDSN string
	UseMemory     bool
	Migrate       bool
}

// stores bundles the run and snapshot stores with their connections.
type stores struct {
	Runs      storage.RunStore
	Snapshots storage.SnapshotStore
	closers   []func()
}

// Close releases every open connection in reverse order.
func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores picks the backends: memory, or PostgreSQL for runs and
// ClickHouse for snapshots when a ClickHouse DSN is given (PostgreSQL otherwise).
func openStores(ctx context.Context, log zerolog.Logger, opts storeOptions) (*stores, error) {
	if opts.UseMemory {
		log.Info().Msg("using in-memory storage")
		return &stores{
			Runs:      memory.NewRunStore(),
			Snapshots: memory.NewSnapshotStore(),
		}, nil
	}

	if opts.PostgresDSN == "" {
		return nil, errors.New("--postgres-dsn is required when not using --use-memory")
	}

	s := &stores{}

	pool, err := pgstore.NewPool(ctx, opts.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	s.closers = append(s.closers, pool.Close)

	if opts.Migrate {
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			s.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
	}

	s.Runs = pgstore.NewRunStore(pool)
	s.Snapshots = pgstore.NewSnapshotStore(pool)

	if opts.ClickHouseDSN == "" {
		log.Info().Msg("using postgres storage")
		return s, nil
	}

	var conn *chstore.Conn
	if opts.Migrate {
		conn, err = migrations.RunClickhouseMigrations(ctx, opts.ClickHouseDSN)
	} else {
		conn, err = chstore.NewConn(ctx, opts.ClickHouseDSN)
	}
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	s.closers = append(s.closers, func() { _ = conn.Close() })

	s.Snapshots = chstore.NewSnapshotStore(conn)
	log.Info().Msg("using postgres for runs and clickhouse for snapshots")
	return s, nil
}
