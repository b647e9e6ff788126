package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"cashflow-lab/internal/observability"
	"cashflow-lab/internal/storage"
)

// applicationName tags cashflow-lab sessions in pg_stat_activity.
const applicationName = "cashflow-lab"

// Pool is the shared pgx pool behind the run and snapshot stores.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects to dsn and pings the server. Pool sizing comes from the
// DSN (pool_max_conns); a snapshot batch and a run insert need at least
// two connections, so smaller pools are raised to four.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = max(cfg.MaxConns, 4)
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Pool{Pool: pool}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

// uniqueViolation is SQLSTATE 23505.
const uniqueViolation = "23505"

// storageError maps driver errors onto the storage sentinels and wraps
// everything else with op.
func storageError(op string, err error) error {
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return storage.ErrDuplicateKey
	case errors.Is(err, pgx.ErrNoRows):
		return storage.ErrNotFound
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// observe records query latency and errors under the given operation.
// A missing row is not a query error.
func observe(operation string, started time.Time, err error) {
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, storage.ErrNotFound) {
		err = nil
	}
	observability.RecordDBQuery("postgres", operation, time.Since(started).Seconds(), err)
}
