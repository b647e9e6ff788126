// Package verification checks that re-solving a scenario reproduces the
// snapshots stored for its run.
package verification

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/storage"
)

// ErrRunNotFound is returned when the run ID doesn't exist.
var ErrRunNotFound = errors.New("run not found")

// Divergence kinds.
const (
	DivergenceValue   = "value"   // both sides present, values differ
	DivergenceMissing = "missing" // stored, not replayed
	DivergenceExtra   = "extra"   // replayed, not stored
)

// Divergence is a mismatch between a stored and a replayed snapshot.
type Divergence struct {
	Kind      string
	TickDate  time.Time
	AccountID string
	Expected  decimal.Decimal // stored value
	Actual    decimal.Decimal // replayed value
}

func (d Divergence) String() string {
	switch d.Kind {
	case DivergenceMissing:
		return fmt.Sprintf("%s %s: stored %s, not replayed", d.TickDate.Format(time.DateOnly), d.AccountID, d.Expected)
	case DivergenceExtra:
		return fmt.Sprintf("%s %s: replayed %s, not stored", d.TickDate.Format(time.DateOnly), d.AccountID, d.Actual)
	default:
		return fmt.Sprintf("%s %s: stored %s, replayed %s", d.TickDate.Format(time.DateOnly), d.AccountID, d.Expected, d.Actual)
	}
}

// Result contains the outcome of verifying one run.
type Result struct {
	RunID       string
	Checked     int  // stored snapshots compared
	Match       bool // true if no divergences
	Divergences []Divergence
}

// Verifier compares freshly solved results with a stored run.
type Verifier struct {
	runStore      storage.RunStore
	snapshotStore storage.SnapshotStore
}

// NewVerifier creates a new Verifier.
func NewVerifier(runStore storage.RunStore, snapshotStore storage.SnapshotStore) *Verifier {
	return &Verifier{runStore: runStore, snapshotStore: snapshotStore}
}

// VerifyRun compares results against the snapshots stored for runID.
func (v *Verifier) VerifyRun(ctx context.Context, runID string, results *domain.Results) (*Result, error) {
	// 1. Run must exist
	if _, err := v.runStore.GetByID(ctx, runID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	// 2. Load stored snapshots
	stored, err := v.snapshotStore.GetByRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	// 3. Compare
	divergences := CompareSnapshots(stored, domain.SnapshotsFromResults(runID, results))

	return &Result{
		RunID:       runID,
		Checked:     len(stored),
		Match:       len(divergences) == 0,
		Divergences: divergences,
	}, nil
}

// CompareSnapshots matches snapshots by (tick_date, account_id) and
// returns every divergence ordered by tick date then account. Values are
// compared exactly.
func CompareSnapshots(stored, replayed []*domain.Snapshot) []Divergence {
	type key struct {
		date    time.Time
		account string
	}

	replayedByKey := make(map[key]decimal.Decimal, len(replayed))
	for _, s := range replayed {
		replayedByKey[key{domain.Day(s.TickDate), s.AccountID}] = s.Value
	}

	var divergences []Divergence
	for _, s := range stored {
		k := key{domain.Day(s.TickDate), s.AccountID}
		actual, ok := replayedByKey[k]
		switch {
		case !ok:
			divergences = append(divergences, Divergence{
				Kind: DivergenceMissing, TickDate: k.date, AccountID: k.account, Expected: s.Value,
			})
		case !actual.Equal(s.Value):
			divergences = append(divergences, Divergence{
				Kind: DivergenceValue, TickDate: k.date, AccountID: k.account, Expected: s.Value, Actual: actual,
			})
		}
		delete(replayedByKey, k)
	}

	for k, actual := range replayedByKey {
		divergences = append(divergences, Divergence{
			Kind: DivergenceExtra, TickDate: k.date, AccountID: k.account, Actual: actual,
		})
	}

	sort.SliceStable(divergences, func(i, j int) bool {
		if !divergences[i].TickDate.Equal(divergences[j].TickDate) {
			return divergences[i].TickDate.Before(divergences[j].TickDate)
		}
		return divergences[i].AccountID < divergences[j].AccountID
	})
	return divergences
}
