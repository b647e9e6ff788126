package scenario

import (
	"sort"
	"time"

	"cashflow-lab/internal/domain"
)

// entry is an action tagged with its owning account and its position in
// that account's generated sequence.
type entry struct {
	date    time.Time
	action  domain.Action
	account int // registry index
	seq     int // generation order within the account
}

// tagEntries flattens per-account pairs into entries. perAccount is
// indexed by registry index.
func tagEntries(perAccount [][]domain.TimedAction) []entry {
	n := 0
	for _, items := range perAccount {
		n += len(items)
	}

	entries := make([]entry, 0, n)
	for account, items := range perAccount {
		for seq, ta := range items {
			entries = append(entries, entry{
				date:    ta.Date,
				action:  ta.Action,
				account: account,
				seq:     seq,
			})
		}
	}
	return entries
}

// sortEntries orders entries by (date ASC, account ASC, seq ASC).
func sortEntries(entries []entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return compareEntries(entries[i], entries[j]) < 0
	})
}

// compareEntries returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (date ASC, account registration index ASC, generation order ASC)
func compareEntries(a, b entry) int {
	if c := a.date.Compare(b.date); c != 0 {
		return c
	}
	if a.account != b.account {
		if a.account < b.account {
			return -1
		}
		return 1
	}
	if a.seq != b.seq {
		if a.seq < b.seq {
			return -1
		}
		return 1
	}
	return 0
}

// dueBefore returns the index of the first entry at or after cursor whose
// date is not before tick. entries[cursor:i] are due for the tick.
func dueBefore(entries []entry, cursor int, tick time.Time) int {
	rest := entries[cursor:]
	return cursor + sort.Search(len(rest), func(i int) bool {
		return !rest[i].date.Before(tick)
	})
}
