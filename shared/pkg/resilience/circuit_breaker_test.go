package resilience

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreaker(threshold uint32, observer StateObserver) *CircuitBreaker {
	cfg := DefaultCircuitBreakerConfig("rate-source")
	cfg.FailureThreshold = threshold
	cfg.MinRequestsToTrip = 0
	cfg.Timeout = time.Minute
	cfg.OnStateChange = observer
	return NewCircuitBreaker(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestExecute_PassesResultThrough(t *testing.T) {
	cb := testBreaker(3, nil)

	got, err := Execute(context.Background(), cb, func(ctx context.Context) (int, error) {
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestExecute_CallsFunctionOncePerExecute(t *testing.T) {
	cb := testBreaker(5, nil)
	calls := 0
	boom := errors.New("boom")

	_, err := Execute(context.Background(), cb, func(ctx context.Context) (string, error) {
		calls++
		return "", boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestExecute_OpensAfterConsecutiveFailures(t *testing.T) {
	var transitions []gobreaker.State
	cb := testBreaker(2, func(name string, from, to gobreaker.State) {
		transitions = append(transitions, to)
	})
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		_, err := Execute(context.Background(), cb, func(ctx context.Context) (int, error) {
			return 0, boom
		})
		require.ErrorIs(t, err, boom)
	}

	assert.Equal(t, gobreaker.StateOpen, cb.State())
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)

	called := false
	_, err := Execute(context.Background(), cb, func(ctx context.Context) (int, error) {
		called = true
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestExecute_IsSuccessfulExcludesErrors(t *testing.T) {
	notCounted := errors.New("bad input")
	cfg := DefaultCircuitBreakerConfig("rate-source")
	cfg.FailureThreshold = 1
	cfg.MinRequestsToTrip = 0
	cfg.IsSuccessful = func(err error) bool { return err == nil || errors.Is(err, notCounted) }
	cb := NewCircuitBreaker(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := Execute(context.Background(), cb, func(ctx context.Context) (int, error) {
		return 0, notCounted
	})

	assert.ErrorIs(t, err, notCounted)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
