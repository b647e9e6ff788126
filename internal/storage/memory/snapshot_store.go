package memory

import (
	"context"
	"sort"
	"sync"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[storage.SnapshotKey]*domain.Snapshot
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[storage.SnapshotKey]*domain.Snapshot),
	}
}

// InsertBulk adds multiple snapshots atomically. Fails entire batch on any duplicate.
func (s *SnapshotStore) InsertBulk(_ context.Context, snapshots []*domain.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	if err := storage.ValidateSnapshots(snapshots); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check against existing data
	for _, snap := range snapshots {
		if _, exists := s.data[storage.KeyOf(snap)]; exists {
			return storage.ErrDuplicateKey
		}
	}

	// Second pass: insert all
	for _, snap := range snapshots {
		copy := *snap
		s.data[storage.KeyOf(snap)] = &copy
	}

	return nil
}

// GetByRun retrieves all snapshots of a run, ordered by (tick_date, account_id) ASC.
func (s *SnapshotStore) GetByRun(_ context.Context, runID string) ([]*domain.Snapshot, error) {
	return s.filter(func(snap *domain.Snapshot) bool {
		return snap.RunID == runID
	}), nil
}

// GetByAccount retrieves one account's snapshots of a run, ordered by tick_date ASC.
func (s *SnapshotStore) GetByAccount(_ context.Context, runID, accountID string) ([]*domain.Snapshot, error) {
	return s.filter(func(snap *domain.Snapshot) bool {
		return snap.RunID == runID && snap.AccountID == accountID
	}), nil
}

func (s *SnapshotStore) filter(keep func(*domain.Snapshot) bool) []*domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Snapshot
	for _, snap := range s.data {
		if keep(snap) {
			copy := *snap
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].TickDate.Equal(result[j].TickDate) {
			return result[i].TickDate.Before(result[j].TickDate)
		}
		return result[i].AccountID < result[j].AccountID
	})

	return result
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
