package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/storage"
)

func createTestRun(runID, scenario string, created time.Time) *domain.Run {
	return &domain.Run{
		RunID:       runID,
		ExecutionID: uuid.NewString(),
		Scenario:    scenario,
		StartDate:   domain.Date(2023, 1, 1),
		EndDate:     domain.Date(2024, 1, 1),
		Resolution:  "WEEKLY",
		Accounts:    2,
		Ticks:       53,
		CreatedAt:   created,
	}
}

func TestRunStore(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	run := createTestRun("run-a", "savings", base)
	require.NoError(t, store.Insert(ctx, run))
	require.NoError(t, store.Insert(ctx, createTestRun("run-b", "savings", base.Add(-time.Hour))))
	require.NoError(t, store.Insert(ctx, createTestRun("run-c", "budget", base)))

	err := store.Insert(ctx, run)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByID(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, run.ExecutionID, got.ExecutionID)
	assert.Equal(t, domain.Date(2023, 1, 1), got.StartDate)
	assert.Equal(t, 53, got.Ticks)
	assert.True(t, got.CreatedAt.Equal(base))

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	runs, err := store.GetByScenario(ctx, "savings")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-b", runs[0].RunID)
}

func TestSnapshotStore(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, NewRunStore(pool).Insert(ctx, createTestRun("run-a", "savings", time.Now().UTC())))

	store := NewSnapshotStore(pool)
	require.NoError(t, store.InsertBulk(ctx, nil))

	snapshots := []*domain.Snapshot{
		{RunID: "run-a", TickDate: domain.Date(2023, 1, 8), AccountID: "b", Value: decimal.RequireFromString("1200.5")},
		{RunID: "run-a", TickDate: domain.Date(2023, 1, 1), AccountID: "a", Value: decimal.RequireFromString("0")},
		{RunID: "run-a", TickDate: domain.Date(2023, 1, 8), AccountID: "a", Value: decimal.RequireFromString("-40.125")},
	}
	require.NoError(t, store.InsertBulk(ctx, snapshots))

	got, err := store.GetByRun(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, domain.Date(2023, 1, 1), got[0].TickDate)
	assert.Equal(t, "a", got[1].AccountID)
	assert.True(t, got[1].Value.Equal(decimal.RequireFromString("-40.125")))

	series, err := store.GetByAccount(ctx, "run-a", "b")
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.True(t, series[0].Value.Equal(decimal.RequireFromString("1200.5")))

	// whole batch rejected on a duplicate
	err = store.InsertBulk(ctx, []*domain.Snapshot{
		{RunID: "run-a", TickDate: domain.Date(2023, 1, 15), AccountID: "a", Value: decimal.Zero},
		snapshots[0],
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err = store.GetByRun(ctx, "run-a")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSnapshotStore_BeforeRunRow(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	snapshots := []*domain.Snapshot{
		{RunID: "run-z", TickDate: domain.Date(2023, 1, 1), AccountID: "a", Value: decimal.RequireFromString("0.1234567")},
	}
	require.NoError(t, NewSnapshotStore(pool).InsertBulk(ctx, snapshots))
	require.NoError(t, NewRunStore(pool).Insert(ctx, createTestRun("run-z", "savings", time.Now().UTC())))

	got, err := NewSnapshotStore(pool).GetByRun(ctx, "run-z")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Value.Equal(decimal.RequireFromString("0.1234567")), "numeric keeps full precision")
}
