package scenario

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"cashflow-lab/internal/domain"
)

// JournalEntry is one balance change applied during a solve.
type JournalEntry struct {
	Date      time.Time // action date
	Tick      time.Time // tick the action was applied for
	AccountID string
	Action    domain.Action
	Delta     decimal.Decimal // signed change to AccountID
	Balance   decimal.Decimal // AccountID balance after the change
}

// Journal records every applied balance change of the most recent solve.
// A transfer produces two entries, one per side.
type Journal struct {
	mu      sync.RWMutex
	entries []JournalEntry
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{}
}

// Entries returns a copy of all entries in application order.
func (j *Journal) Entries() []JournalEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]JournalEntry, len(j.entries))
	copy(out, j.entries)
	return out
}

// ByAccount returns the entries touching accountID.
func (j *Journal) ByAccount(accountID string) []JournalEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []JournalEntry
	for _, e := range j.entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entries.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}

func (j *Journal) record(e JournalEntry) {
	if j == nil {
		return
	}
	j.mu.Lock()
	j.entries = append(j.entries, e)
	j.mu.Unlock()
}

func (j *Journal) reset() {
	if j == nil {
		return
	}
	j.mu.Lock()
	j.entries = nil
	j.mu.Unlock()
}
