package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// InsertBulk adds multiple snapshots atomically. Fails entire batch on any duplicate.
// Values travel as text so NUMERIC keeps full decimal precision.
func (s *SnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.Snapshot) (err error) {
	if len(snapshots) == 0 {
		return nil
	}
	if err := storage.ValidateSnapshots(snapshots); err != nil {
		return err
	}
	defer func(started time.Time) { observe("insert_snapshots", started, err) }(time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO account_snapshots (run_id, tick_date, account_id, value)
		VALUES ($1, $2, $3, $4::text::numeric)
	`

	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		batch.Queue(query, snap.RunID, domain.Day(snap.TickDate), snap.AccountID, snap.Value.String())
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return storageError("insert snapshots in bulk", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByRun retrieves all snapshots of a run, ordered by (tick_date, account_id) ASC.
func (s *SnapshotStore) GetByRun(ctx context.Context, runID string) ([]*domain.Snapshot, error) {
	query := `
		SELECT run_id, tick_date, account_id, value::text
		FROM account_snapshots
		WHERE run_id = $1
		ORDER BY tick_date ASC, account_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get snapshots by run: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// GetByAccount retrieves one account's snapshots of a run, ordered by tick_date ASC.
func (s *SnapshotStore) GetByAccount(ctx context.Context, runID, accountID string) ([]*domain.Snapshot, error) {
	query := `
		SELECT run_id, tick_date, account_id, value::text
		FROM account_snapshots
		WHERE run_id = $1 AND account_id = $2
		ORDER BY tick_date ASC
	`

	rows, err := s.pool.Query(ctx, query, runID, accountID)
	if err != nil {
		return nil, fmt.Errorf("get snapshots by account: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// scanSnapshots scans multiple rows into a slice of Snapshot.
func scanSnapshots(rows pgx.Rows) ([]*domain.Snapshot, error) {
	var snapshots []*domain.Snapshot

	for rows.Next() {
		var (
			snap  domain.Snapshot
			value string
		)
		if err := rows.Scan(&snap.RunID, &snap.TickDate, &snap.AccountID, &value); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		v, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("parse snapshot value %q: %w", value, err)
		}
		snap.Value = v
		snap.TickDate = snap.TickDate.UTC()

		snapshots = append(snapshots, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snapshots, nil
}
