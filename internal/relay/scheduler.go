package relay

import (
	"errors"
	"strings"
	"time"
)

// ErrAborted is the terminal result of a stream whose consumer went away.
// It is a recognized outcome, not a failure: callers skip persistence and
// emit nothing further when they see it.
var ErrAborted = errors.New("stream aborted")

// Sink writes one coalesced chunk outward. A non-nil error means the
// downstream consumer is gone.
type Sink func(chunk string) error

// Relay consumes deltas from the pump and releases them through sink on a
// fixed cadence, so a slow-refresh display receives a few substantial chunks
// instead of one event per token. It returns the full accumulated text.
//
// The flush timer starts at the first delta, so the first flush lands one
// full interval after streaming begins. A tick with an empty buffer emits
// nothing. On completion the timer is stopped and any non-empty remainder is
// flushed as the final chunk, guaranteed to contain every delta accepted into
// the buffer. A terminal generator error is returned as-is, with no final
// flush.
//
// Abort is checked after every outward send and on every wakeup: once
// observed, no further chunks are emitted, the partial buffer is discarded,
// and the result is ErrAborted. A sink failure sets the abort signal itself
// and resolves the same way.
func Relay(deltas <-chan string, errs <-chan error, interval time.Duration, abort *AbortSignal, sink Sink) (string, error) {
	var full, buf strings.Builder

	var ticker *time.Ticker
	var tick <-chan time.Time
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	flush := func() error {
		if buf.Len() == 0 {
			return nil
		}
		if err := sink(buf.String()); err != nil {
			abort.Set()
			return ErrAborted
		}
		buf.Reset()
		if abort.Aborted() {
			return ErrAborted
		}
		return nil
	}

	for {
		select {
		case delta, ok := <-deltas:
			if !ok {
				// Completion or generator failure. Stop the timer before the
				// final flush so a racing tick cannot re-emit anything.
				if ticker != nil {
					ticker.Stop()
					ticker = nil
				}
				if abort.Aborted() {
					return full.String(), ErrAborted
				}
				if err := <-errs; err != nil {
					return full.String(), err
				}
				if err := flush(); err != nil {
					return full.String(), err
				}
				return full.String(), nil
			}

			if abort.Aborted() {
				return full.String(), ErrAborted
			}

			full.WriteString(delta)
			buf.WriteString(delta)
			if ticker == nil {
				ticker = time.NewTicker(interval)
				tick = ticker.C
			}

		case <-tick:
			if abort.Aborted() {
				return full.String(), ErrAborted
			}
			if err := flush(); err != nil {
				return full.String(), err
			}
		}
	}
}
