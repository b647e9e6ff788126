package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/storage"
)

// ValueScale is the fractional precision of account_snapshots.value
// (Decimal(38, 6)). The driver truncates extra digits on insert.
const ValueScale = 6

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// InsertBulk adds multiple snapshots. Fails entire batch on duplicate
// (run_id, tick_date, account_id). MergeTree does not enforce keys, so
// existing rows of the batch's runs are checked first.
func (s *SnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.Snapshot) (err error) {
	if len(snapshots) == 0 {
		return nil
	}
	if err := storage.ValidateSnapshots(snapshots); err != nil {
		return err
	}
	if err := checkScale(snapshots); err != nil {
		return err
	}
	defer func(started time.Time) { observe("insert_snapshots", started, err) }(time.Now())

	runs := make(map[string]struct{})
	for _, snap := range snapshots {
		runs[snap.RunID] = struct{}{}
	}
	for runID := range runs {
		existing, err := s.keys(ctx, runID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		for _, snap := range snapshots {
			if _, dup := existing[storage.KeyOf(snap)]; dup {
				return storage.ErrDuplicateKey
			}
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO account_snapshots (run_id, tick_date, account_id, value)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		if err = batch.Append(snap.RunID, domain.Day(snap.TickDate), snap.AccountID, snap.Value); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRun retrieves all snapshots of a run, ordered by (tick_date, account_id) ASC.
func (s *SnapshotStore) GetByRun(ctx context.Context, runID string) ([]*domain.Snapshot, error) {
	query := `
		SELECT run_id, tick_date, account_id, value
		FROM account_snapshots
		WHERE run_id = ?
		ORDER BY tick_date ASC, account_id ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// GetByAccount retrieves one account's snapshots of a run, ordered by tick_date ASC.
func (s *SnapshotStore) GetByAccount(ctx context.Context, runID, accountID string) ([]*domain.Snapshot, error) {
	query := `
		SELECT run_id, tick_date, account_id, value
		FROM account_snapshots
		WHERE run_id = ? AND account_id = ?
		ORDER BY tick_date ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, accountID)
	if err != nil {
		return nil, fmt.Errorf("query by account: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// checkScale rejects values with more than ValueScale fractional digits,
// which would be stored truncated and fail verification.
func checkScale(snapshots []*domain.Snapshot) error {
	for _, snap := range snapshots {
		if !snap.Value.Equal(snap.Value.Truncate(ValueScale)) {
			return fmt.Errorf("%w: %s on %s for %s exceeds %d decimal places",
				storage.ErrInvalidInput, snap.Value, snap.TickDate.Format(time.DateOnly), snap.AccountID, ValueScale)
		}
	}
	return nil
}

// keys returns the stored keys of a run.
func (s *SnapshotStore) keys(ctx context.Context, runID string) (map[storage.SnapshotKey]struct{}, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT tick_date, account_id FROM account_snapshots WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[storage.SnapshotKey]struct{})
	for rows.Next() {
		var (
			tick      time.Time
			accountID string
		)
		if err := rows.Scan(&tick, &accountID); err != nil {
			return nil, err
		}
		keys[storage.SnapshotKey{RunID: runID, TickDate: domain.Day(tick), AccountID: accountID}] = struct{}{}
	}
	return keys, rows.Err()
}

// scanSnapshots scans multiple rows.
func scanSnapshots(rows chRows) ([]*domain.Snapshot, error) {
	var snapshots []*domain.Snapshot

	for rows.Next() {
		var (
			snap  domain.Snapshot
			value decimal.Decimal
		)
		if err := rows.Scan(&snap.RunID, &snap.TickDate, &snap.AccountID, &value); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		snap.TickDate = domain.Day(snap.TickDate)
		snap.Value = value

		snapshots = append(snapshots, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return snapshots, nil
}
