package interval

import (
	"fmt"
	"strings"
	"time"

	"cashflow-lab/internal/domain"
)

// Frequency is a named sampling cadence with a fixed step.
type Frequency string

// Frequency constants.
const (
	Daily    Frequency = "DAILY"
	Weekly   Frequency = "WEEKLY"
	Biweekly Frequency = "BIWEEKLY"
)

var steps = map[Frequency]time.Duration{
	Daily:    24 * time.Hour,
	Weekly:   7 * 24 * time.Hour,
	Biweekly: 14 * 24 * time.Hour,
}

// Step returns the fixed duration between two samples.
// Returns ErrUnknownFrequency for unrecognized values.
func (f Frequency) Step() (time.Duration, error) {
	step, ok := steps[f]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownFrequency, string(f))
	}
	return step, nil
}

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	_, ok := steps[f]
	return ok
}

// ParseFrequency converts a case-insensitive name into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToUpper(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownFrequency, s)
	}
	return f, nil
}
