package health

import "errors"

var (
	// ErrCheckTimeout is the result error of a check that outlived the
	// aggregator timeout.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned by Aggregator.Check for an unknown name.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrThresholdExceeded is the result error of a check over its limits.
	ErrThresholdExceeded = errors.New("health: threshold exceeded")
)
