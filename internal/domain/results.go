package domain

import (
	"maps"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Tick is the snapshot of every account value at one sample date.
type Tick struct {
	Date   time.Time
	Values map[string]decimal.Decimal // keyed by account id
}

// Results maps tick dates to per-account value snapshots.
// Ticks are kept in ascending date order.
type Results struct {
	ticks []Tick
}

// NewResults creates an empty Results with room for n ticks.
func NewResults(n int) *Results {
	return &Results{ticks: make([]Tick, 0, n)}
}

// Record appends a tick. Callers append in ascending date order.
func (r *Results) Record(date time.Time, values map[string]decimal.Decimal) {
	r.ticks = append(r.ticks, Tick{Date: date, Values: values})
}

// Len returns the number of ticks.
func (r *Results) Len() int {
	return len(r.ticks)
}

// Ticks returns a copy of all ticks in ascending order.
func (r *Results) Ticks() []Tick {
	out := make([]Tick, len(r.ticks))
	for i, t := range r.ticks {
		out[i] = Tick{Date: t.Date, Values: maps.Clone(t.Values)}
	}
	return out
}

// Dates returns the tick dates in ascending order.
func (r *Results) Dates() []time.Time {
	out := make([]time.Time, len(r.ticks))
	for i, t := range r.ticks {
		out[i] = t.Date
	}
	return out
}

// At returns the snapshot recorded for date.
func (r *Results) At(date time.Time) (map[string]decimal.Decimal, bool) {
	i := sort.Search(len(r.ticks), func(i int) bool {
		return !r.ticks[i].Date.Before(date)
	})
	if i == len(r.ticks) || !r.ticks[i].Date.Equal(date) {
		return nil, false
	}
	return maps.Clone(r.ticks[i].Values), true
}

// Value returns one account's value at date.
func (r *Results) Value(date time.Time, accountID string) (decimal.Decimal, bool) {
	values, ok := r.At(date)
	if !ok {
		return decimal.Zero, false
	}
	v, ok := values[accountID]
	return v, ok
}

// Series returns one account's value at every tick, in tick order.
// Ticks without the account contribute zero.
func (r *Results) Series(accountID string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(r.ticks))
	for i, t := range r.ticks {
		out[i] = t.Values[accountID]
	}
	return out
}
