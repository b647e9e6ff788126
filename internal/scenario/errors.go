package scenario

import "errors"

// ErrNoContext is returned by New when the formula context is nil.
var ErrNoContext = errors.New("scenario: nil formula context")
