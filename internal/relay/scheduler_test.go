package relay_test

import (
	"errors"
	"testing"
	"time"

	"github.com/semidark/aichat/internal/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectSink(chunks *[]string) relay.Sink {
	return func(chunk string) error {
		*chunks = append(*chunks, chunk)
		return nil
	}
}

func closedErrs() <-chan error {
	errs := make(chan error)
	close(errs)
	return errs
}

// Deltas arriving inside one interval coalesce into a single chunk, and the
// remainder is flushed on completion rather than waiting for another tick.
func TestRelayCoalescesDeltas(t *testing.T) {
	deltas := make(chan string)
	go func() {
		defer close(deltas)
		deltas <- "He"
		time.Sleep(20 * time.Millisecond)
		deltas <- "llo "
		time.Sleep(280 * time.Millisecond) // past the first 200ms tick
		deltas <- "Wor"
		time.Sleep(20 * time.Millisecond)
		deltas <- "ld"
		time.Sleep(30 * time.Millisecond)
	}()

	var chunks []string
	full, err := relay.Relay(deltas, closedErrs(), 200*time.Millisecond, relay.NewAbortSignal(), collectSink(&chunks))

	require.NoError(t, err)
	assert.Equal(t, []string{"Hello ", "World"}, chunks)
	assert.Equal(t, "Hello World", full)
}

func TestRelayNeverEmitsEmptyChunks(t *testing.T) {
	deltas := make(chan string)
	go func() {
		defer close(deltas)
		deltas <- "x"
		// Several ticks pass with nothing buffered before completion.
		time.Sleep(250 * time.Millisecond)
	}()

	var chunks []string
	full, err := relay.Relay(deltas, closedErrs(), 50*time.Millisecond, relay.NewAbortSignal(), collectSink(&chunks))

	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, chunks)
	assert.Equal(t, "x", full)
}

func TestRelayEmptyStream(t *testing.T) {
	deltas := make(chan string)
	close(deltas)

	var chunks []string
	full, err := relay.Relay(deltas, closedErrs(), time.Hour, relay.NewAbortSignal(), collectSink(&chunks))

	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.Empty(t, full)
}

func TestRelaySinkFailureSetsAbort(t *testing.T) {
	deltas := make(chan string, 4)
	deltas <- "a"
	deltas <- "b"
	close(deltas)

	abort := relay.NewAbortSignal()
	calls := 0
	sink := func(string) error {
		calls++
		return errors.New("client gone")
	}

	_, err := relay.Relay(deltas, closedErrs(), 10*time.Millisecond, abort, sink)

	assert.ErrorIs(t, err, relay.ErrAborted)
	assert.True(t, abort.Aborted())
	assert.Equal(t, 1, calls)
}

func TestRelayStopsAfterAbortObserved(t *testing.T) {
	deltas := make(chan string, 1)
	done := make(chan struct{})
	go func() {
		defer close(deltas)
		deltas <- "first"
		<-done
		// These deltas arrive after the consumer vanished.
		deltas <- "late"
	}()

	abort := relay.NewAbortSignal()
	var chunks []string
	sink := func(chunk string) error {
		chunks = append(chunks, chunk)
		abort.Set()
		close(done)
		return nil
	}

	full, err := relay.Relay(deltas, closedErrs(), 30*time.Millisecond, abort, sink)

	assert.ErrorIs(t, err, relay.ErrAborted)
	// The first flush went out before the signal; nothing after it did.
	assert.Equal(t, []string{"first"}, chunks)
	assert.Contains(t, full, "first")
}

func TestRelayReturnsGeneratorError(t *testing.T) {
	genErr := errors.New("backend exploded")

	deltas := make(chan string, 1)
	deltas <- "partial"
	close(deltas)

	errs := make(chan error, 1)
	errs <- genErr
	close(errs)

	var chunks []string
	// An hour-long interval guarantees no tick fires before completion.
	full, err := relay.Relay(deltas, errs, time.Hour, relay.NewAbortSignal(), collectSink(&chunks))

	assert.ErrorIs(t, err, genErr)
	assert.Equal(t, "partial", full)
	assert.Empty(t, chunks, "no flush should happen on the error path")
}
