package storage

import (
	"time"

	"cashflow-lab/internal/domain"
)

// SnapshotKey is the unique key of a snapshot.
type SnapshotKey struct {
	RunID     string
	TickDate  time.Time
	AccountID string
}

// KeyOf returns the unique key of s.
func KeyOf(s *domain.Snapshot) SnapshotKey {
	return SnapshotKey{RunID: s.RunID, TickDate: domain.Day(s.TickDate), AccountID: s.AccountID}
}

// ValidateSnapshots checks a batch for missing fields and intra-batch
// duplicates. Returns ErrInvalidInput or ErrDuplicateKey.
func ValidateSnapshots(snapshots []*domain.Snapshot) error {
	seen := make(map[SnapshotKey]struct{}, len(snapshots))
	for _, s := range snapshots {
		if s == nil || s.RunID == "" || s.AccountID == "" || s.TickDate.IsZero() {
			return ErrInvalidInput
		}
		k := KeyOf(s)
		if _, exists := seen[k]; exists {
			return ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}
	return nil
}
