// Package relay moves text deltas from a generation backend to a
// slow-refresh client: a pump forwards deltas from the backend into a
// channel, and a scheduler coalesces them into paced flushes. Cancellation
// is cooperative; every stage polls a shared abort signal at its
// checkpoints.
package relay

import "sync/atomic"

// AbortSignal is the shared cancellation flag for one in-flight stream. It
// is set exactly once, from the point that observes the client going away,
// and polled by the pump, the scheduler, and the finalize step. Once set it
// cannot be unset.
type AbortSignal struct {
	aborted atomic.Bool
}

// NewAbortSignal creates an unset abort signal.
func NewAbortSignal() *AbortSignal {
	return &AbortSignal{}
}

// Set marks the stream as aborted. Calling it again is a no-op.
func (s *AbortSignal) Set() {
	s.aborted.Store(true)
}

// Aborted reports whether the stream has been aborted. Consumers poll this
// at well-defined checkpoints; the signal takes effect by each consumer's
// next check, not instantaneously.
func (s *AbortSignal) Aborted() bool {
	return s.aborted.Load()
}
