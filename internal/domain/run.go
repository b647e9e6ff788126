package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Run describes one persisted scenario resolution.
type Run struct {
	RunID       string // deterministic hash of scenario + window + resolution
	ExecutionID string // unique per execution
	Scenario    string
	StartDate   time.Time
	EndDate     time.Time
	Resolution  string
	Accounts    int
	Ticks       int
	CreatedAt   time.Time
}

// Snapshot is one account value at one tick of a run.
type Snapshot struct {
	RunID     string
	TickDate  time.Time
	AccountID string
	Value     decimal.Decimal
}

// SnapshotsFromResults flattens results into snapshots ordered by
// (tick_date, account_id).
func SnapshotsFromResults(runID string, results *Results) []*Snapshot {
	if results == nil {
		return nil
	}

	var out []*Snapshot
	for _, tick := range results.ticks {
		ids := make([]string, 0, len(tick.Values))
		for id := range tick.Values {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			out = append(out, &Snapshot{
				RunID:     runID,
				TickDate:  tick.Date,
				AccountID: id,
				Value:     tick.Values[id],
			})
		}
	}
	return out
}

