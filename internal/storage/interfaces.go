package storage

import (
	"context"

	"cashflow-lab/internal/domain"
)

// RunStore provides access to scenario_runs storage.
type RunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.Run) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.Run, error)

	// GetByScenario retrieves all runs of a scenario, ordered by created_at ASC.
	GetByScenario(ctx context.Context, scenario string) ([]*domain.Run, error)
}

// SnapshotStore provides access to account_snapshots storage.
type SnapshotStore interface {
	// InsertBulk adds multiple snapshots atomically.
	// Fails entire batch on any duplicate (run_id, tick_date, account_id).
	InsertBulk(ctx context.Context, snapshots []*domain.Snapshot) error

	// GetByRun retrieves all snapshots of a run, ordered by (tick_date, account_id) ASC.
	GetByRun(ctx context.Context, runID string) ([]*domain.Snapshot, error)

	// GetByAccount retrieves one account's snapshots of a run, ordered by tick_date ASC.
	GetByAccount(ctx context.Context, runID, accountID string) ([]*domain.Snapshot, error)
}
