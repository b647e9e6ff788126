package domain

import (
	"iter"
	"slices"
	"time"
)

// Interval is a lazy, finite, restartable run of ascending sample dates.
// The zero value is an empty interval.
type Interval struct {
	seq iter.Seq[time.Time]
}

// NewInterval wraps seq. seq must be restartable: every call to it
// yields the same dates.
func NewInterval(seq iter.Seq[time.Time]) Interval {
	return Interval{seq: seq}
}

// IntervalOf builds an interval over a fixed list of dates.
func IntervalOf(dates ...time.Time) Interval {
	owned := slices.Clone(dates)
	return Interval{seq: slices.Values(owned)}
}

// All iterates the dates.
func (i Interval) All() iter.Seq[time.Time] {
	if i.seq == nil {
		return func(func(time.Time) bool) {}
	}
	return i.seq
}

// Dates materializes the interval.
func (i Interval) Dates() []time.Time {
	return slices.Collect(i.All())
}
