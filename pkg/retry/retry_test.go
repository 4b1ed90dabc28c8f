package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func always(error) bool { return true }

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	p := Policy{Attempts: 3, BaseDelay: time.Millisecond, ShouldRetry: always}

	got, err := Do(context.Background(), p, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errTransient
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDo_GivesUpAfterAttempts(t *testing.T) {
	calls := 0
	var retried []int
	p := Policy{
		Attempts:    2,
		BaseDelay:   time.Millisecond,
		ShouldRetry: always,
		OnRetry:     func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) },
	}

	_, err := Do(context.Background(), p, func(context.Context) (int, error) {
		calls++
		return 0, errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []int{1}, retried)
}

func TestDo_NonRetryableReturnsImmediately(t *testing.T) {
	calls := 0
	p := Policy{Attempts: 5, BaseDelay: time.Millisecond, ShouldRetry: func(err error) bool { return !errors.Is(err, errTransient) }}

	_, err := Do(context.Background(), p, func(context.Context) (int, error) {
		calls++
		return 0, errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)
}

func TestDo_StopUnwraps(t *testing.T) {
	calls := 0
	p := Policy{Attempts: 5, BaseDelay: time.Millisecond, ShouldRetry: always}

	_, err := Do(context.Background(), p, func(context.Context) (int, error) {
		calls++
		return 0, Stop(errTransient)
	})

	assert.Equal(t, errTransient, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, Policy{Attempts: 3}, func(context.Context) (int, error) {
		t.Fatal("operation must not run")
		return 0, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

type waitErr struct{ d time.Duration }

func (e waitErr) Error() string             { return "slow down" }
func (e waitErr) RetryAfter() time.Duration { return e.d }

func TestDo_HonoursRetryAfter(t *testing.T) {
	var waits []time.Duration
	p := Policy{
		Attempts:    2,
		BaseDelay:   time.Millisecond,
		ShouldRetry: always,
		OnRetry:     func(_ int, _ error, wait time.Duration) { waits = append(waits, wait) },
	}

	_, _ = Do(context.Background(), p, func(context.Context) (int, error) {
		return 0, waitErr{d: 20 * time.Millisecond}
	})

	require.Len(t, waits, 1)
	assert.Equal(t, 20*time.Millisecond, waits[0])
}

func TestPolicy_DelayIsCapped(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}

	assert.Equal(t, 100*time.Millisecond, p.Delay(1))
	assert.Equal(t, 400*time.Millisecond, p.Delay(3))
	assert.Equal(t, time.Second, p.Delay(10))
}
