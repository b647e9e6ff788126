package formula

import (
	"slices"
	"time"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/interval"
)

// Every samples the whole context window at freq.
func Every(freq interval.Frequency) IntervalSource {
	return func(ctx *Context) (domain.Interval, error) {
		return interval.Generate(ctx.Start, ctx.End, freq)
	}
}

// EveryBetween samples [from, to) at freq, clamped to the context window.
// Dates keep their phase relative to from.
func EveryBetween(freq interval.Frequency, from, to time.Time) IntervalSource {
	return func(ctx *Context) (domain.Interval, error) {
		until := to
		if ctx.End.Before(until) {
			until = ctx.End
		}
		iv, err := interval.Generate(from, until, freq)
		if err != nil {
			return domain.Interval{}, err
		}
		return clamp(iv, ctx.Start, until), nil
	}
}

// OnSchedule samples the context window at every activation of a cron
// spec, e.g. "@monthly" or "0 0 1,15 * *". An invalid spec fails when the
// formula is evaluated.
func OnSchedule(spec string) IntervalSource {
	sched, parseErr := interval.ParseSchedule(spec)
	return func(ctx *Context) (domain.Interval, error) {
		if parseErr != nil {
			return domain.Interval{}, parseErr
		}
		return sched.Generate(ctx.Start, ctx.End), nil
	}
}

// On samples explicit dates. Dates outside the context window are dropped;
// the rest are emitted ascending.
func On(dates ...time.Time) IntervalSource {
	owned := slices.Clone(dates)
	slices.SortStableFunc(owned, func(a, b time.Time) int { return a.Compare(b) })
	return func(ctx *Context) (domain.Interval, error) {
		return clamp(domain.IntervalOf(owned...), ctx.Start, ctx.End), nil
	}
}

// Skip drops the first n dates.
func Skip(n int) IntervalStage {
	return func(*Context) (func(domain.Interval) (domain.Interval, error), error) {
		return func(iv domain.Interval) (domain.Interval, error) {
			return domain.NewInterval(func(yield func(time.Time) bool) {
				i := 0
				for d := range iv.All() {
					i++
					if i <= n {
						continue
					}
					if !yield(d) {
						return
					}
				}
			}), nil
		}, nil
	}
}

// Take keeps at most the first n dates.
func Take(n int) IntervalStage {
	return func(*Context) (func(domain.Interval) (domain.Interval, error), error) {
		return func(iv domain.Interval) (domain.Interval, error) {
			return domain.NewInterval(func(yield func(time.Time) bool) {
				if n <= 0 {
					return
				}
				i := 0
				for d := range iv.All() {
					if !yield(d) {
						return
					}
					i++
					if i >= n {
						return
					}
				}
			}), nil
		}, nil
	}
}

// Within keeps dates in [from, to).
func Within(from, to time.Time) IntervalStage {
	return func(*Context) (func(domain.Interval) (domain.Interval, error), error) {
		return func(iv domain.Interval) (domain.Interval, error) {
			return clamp(iv, from, to), nil
		}, nil
	}
}

func clamp(iv domain.Interval, from, to time.Time) domain.Interval {
	return domain.NewInterval(func(yield func(time.Time) bool) {
		for d := range iv.All() {
			if d.Before(from) {
				continue
			}
			if !d.Before(to) {
				return
			}
			if !yield(d) {
				return
			}
		}
	})
}
