package interval

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"cashflow-lab/internal/domain"
)

// parser accepts standard 5-field specs and descriptors such as @monthly.
var parser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Schedule is a calendar cadence ("1st of every month") backed by a cron spec.
type Schedule struct {
	spec     string
	schedule cron.Schedule
}

// ParseSchedule parses a cron spec. Returns an ErrConfiguration-wrapped
// error for invalid specs.
func ParseSchedule(spec string) (*Schedule, error) {
	s, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: parse schedule %q: %v", domain.ErrConfiguration, spec, err)
	}
	return &Schedule{spec: spec, schedule: s}, nil
}

// Spec returns the source cron spec.
func (s *Schedule) Spec() string {
	return s.spec
}

// Generate returns every activation in [start, end). An activation
// exactly at start is included.
func (s *Schedule) Generate(start, end time.Time) domain.Interval {
	return domain.NewInterval(func(yield func(time.Time) bool) {
		if !start.Before(end) {
			return
		}
		// Next is strictly after its argument.
		cur := s.schedule.Next(start.Add(-time.Nanosecond))
		for !cur.IsZero() && cur.Before(end) {
			if !yield(cur) {
				return
			}
			cur = s.schedule.Next(cur)
		}
	})
}
