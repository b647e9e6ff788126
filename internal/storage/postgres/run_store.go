package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const runColumns = `
	run_id, execution_id::text, scenario, start_date, end_date,
	resolution, accounts, ticks, created_at
`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.Run) (err error) {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}
	defer func(started time.Time) { observe("insert_run", started, err) }(time.Now())

	query := `
		INSERT INTO scenario_runs (
			run_id, execution_id, scenario, start_date, end_date,
			resolution, accounts, ticks, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.pool.Exec(ctx, query,
		r.RunID, r.ExecutionID, r.Scenario, r.StartDate, r.EndDate,
		r.Resolution, r.Accounts, r.Ticks, r.CreatedAt,
	)
	return storageError("insert run", err)
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM scenario_runs WHERE run_id = $1`

	started := time.Now()
	r, err := scanRun(s.pool.QueryRow(ctx, query, runID))
	observe("get_run", started, err)
	if err != nil {
		return nil, storageError("get run by id", err)
	}
	return r, nil
}

// GetByScenario retrieves all runs of a scenario, ordered by created_at ASC.
func (s *RunStore) GetByScenario(ctx context.Context, scenario string) ([]*domain.Run, error) {
	query := `SELECT ` + runColumns + `
		FROM scenario_runs
		WHERE scenario = $1
		ORDER BY created_at ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, scenario)
	if err != nil {
		return nil, fmt.Errorf("get runs by scenario: %w", err)
	}
	defer rows.Close()

	var runs []*domain.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

// scanRun scans a single row into a Run.
func scanRun(row pgx.Row) (*domain.Run, error) {
	var r domain.Run
	err := row.Scan(
		&r.RunID, &r.ExecutionID, &r.Scenario, &r.StartDate, &r.EndDate,
		&r.Resolution, &r.Accounts, &r.Ticks, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.StartDate = r.StartDate.UTC()
	r.EndDate = r.EndDate.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}
