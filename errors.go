package taskwatch

import "errors"

// Sentinel errors returned by this package. Named and used in the style of
// github.com/joeycumines/go-eventloop's Err* variables - package-level,
// wrapped with fmt.Errorf where additional context is useful at the call
// site, compared with errors.Is elsewhere.
var (
	// ErrAggregatorStopped is returned by Submit, AddInstrumentSubscription,
	// and WatchTaskDetail once the aggregator's Run loop has returned.
	ErrAggregatorStopped = errors.New("taskwatch: aggregator has stopped")

	// ErrTaskNotFound is the logical error a task-detail subscription
	// resolves to when the requested task id is unknown. It is never
	// returned directly; the subscription's stream channel is instead
	// dropped unsent, and callers translate that into this error (or an
	// RPC-specific NotFound status, in an out-of-scope transport).
	ErrTaskNotFound = errors.New("taskwatch: task not found")

	// ErrInvalidRetention is returned by Builder.Build when retention is
	// negative.
	ErrInvalidRetention = errors.New("taskwatch: retention must be >= 0")

	// ErrInvalidCapacity is returned by Builder.Build when a buffer capacity
	// is <= 0.
	ErrInvalidCapacity = errors.New("taskwatch: buffer capacity must be > 0")

	// ErrInvalidPublishInterval is returned by Builder.Build when the
	// publish interval is <= 0.
	ErrInvalidPublishInterval = errors.New("taskwatch: publish interval must be > 0")
)
