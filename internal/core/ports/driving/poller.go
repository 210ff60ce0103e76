package driving

import (
	"context"
	"time"
)

// PollerStatus is a point-in-time view of the background poller.
type PollerStatus struct {
	// Running reports whether the poll loop is active.
	Running bool

	// PassCount is the number of passes completed since start.
	PassCount int

	// ConsecutiveFailures counts failed passes since the last success.
	ConsecutiveFailures int

	// NextInterval is the delay before the next pass.
	NextInterval time.Duration

	// LastError is the most recent pass failure, empty after a success.
	LastError string
}

// Poller runs periodic incremental sync passes, persisting the cursor
// after each one.
type Poller interface {
	// Start launches the poll loop. Returns domain.ErrPassInFlight if
	// already running. The loop stops when ctx is cancelled or Stop is
	// called; a pass already underway is allowed to finish.
	Start(ctx context.Context) error

	// Stop interrupts a pending sleep and waits for the loop to exit.
	Stop()

	// TriggerNow requests an immediate pass, skipping the current sleep.
	TriggerNow()

	// Status reports the poller's current state.
	Status() PollerStatus
}
