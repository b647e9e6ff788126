// Package interval produces sample dates for formulas and for the
// scenario tick cadence.
package interval

import (
	"time"

	"cashflow-lab/internal/domain"
)

// Generate returns the dates in [start, end) spaced by freq's step,
// starting at start. The interval is lazy and restartable.
// start >= end yields an empty interval, not an error.
func Generate(start, end time.Time, freq Frequency) (domain.Interval, error) {
	step, err := freq.Step()
	if err != nil {
		return domain.Interval{}, err
	}
	return Steps(start, end, step), nil
}

// Steps returns the dates in [start, end) spaced by step.
// A non-positive step yields an empty interval.
func Steps(start, end time.Time, step time.Duration) domain.Interval {
	return domain.NewInterval(func(yield func(time.Time) bool) {
		if step <= 0 {
			return
		}
		for cur := start; cur.Before(end); cur = cur.Add(step) {
			if !yield(cur) {
				return
			}
		}
	})
}
