package relay

import (
	"context"
	"iter"
)

// Pump drains the generator's delta sequence into a channel so the scheduler
// can race it against its flush timer. Deltas are forwarded in arrival
// order. The delta channel is closed when the sequence ends; if the sequence
// ended with an error, that error is delivered on the error channel before
// it is closed, so exactly one of {clean close, error} terminates the
// stream.
//
// The pump checks abort before starting and after every delta. Once abort is
// observed it stops consuming; generators that watch for the iteration
// stopping (all of ours cancel their underlying request) are released
// immediately, others drain on their own.
func Pump(ctx context.Context, seq iter.Seq2[string, error], abort *AbortSignal) (<-chan string, <-chan error) {
	deltas := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(deltas)
		defer close(errc)

		if abort.Aborted() {
			return
		}

		for delta, err := range seq {
			if err != nil {
				errc <- err
				return
			}
			if abort.Aborted() {
				return
			}
			select {
			case deltas <- delta:
			case <-ctx.Done():
				return
			}
			if abort.Aborted() {
				return
			}
		}
	}()

	return deltas, errc
}
