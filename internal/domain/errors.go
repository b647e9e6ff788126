package domain

import (
	"errors"
	"fmt"
)

// Error families. Every error surfaced by a simulation run wraps one of these.
var (
	// ErrConfiguration is returned for invalid formulas, frequencies,
	// schedules, expressions and scenario files.
	ErrConfiguration = errors.New("configuration error")

	// ErrState is returned when an action cannot be applied to the
	// account registry, e.g. it references a missing account.
	ErrState = errors.New("state error")
)

// Specific errors.
var (
	ErrEmptyPipeline    = fmt.Errorf("%w: pipeline has no stages", ErrConfiguration)
	ErrPipelineShape    = fmt.Errorf("%w: invalid pipeline shape", ErrConfiguration)
	ErrUnknownFrequency = fmt.Errorf("%w: unknown frequency", ErrConfiguration)
	ErrDuplicateAccount = fmt.Errorf("%w: duplicate account id", ErrConfiguration)
	ErrUnknownAccount   = fmt.Errorf("%w: unknown account id", ErrState)
)
