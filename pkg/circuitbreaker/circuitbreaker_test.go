package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func fail(context.Context) (int, error) { return 0, errBoom }
func ok(context.Context) (int, error)   { return 1, nil }

func newBreaker(clock *fakeClock, transitions *[]string) *Breaker {
	return New(Settings{
		Name:      "feed",
		Threshold: 2,
		Cooldown:  time.Minute,
		Now:       clock.Now,
		OnStateChange: func(_ string, from, to State) {
			*transitions = append(*transitions, from.String()+"->"+to.String())
		},
	})
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)}
	var transitions []string
	b := newBreaker(clock, &transitions)

	_, _ = Execute(context.Background(), b, fail)
	assert.Equal(t, StateClosed, b.State())
	_, _ = Execute(context.Background(), b, fail)
	assert.Equal(t, StateOpen, b.State())

	_, err := Execute(context.Background(), b, ok)
	assert.ErrorIs(t, err, ErrOpen)
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestBreaker_ProbeClosesCircuit(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)}
	var transitions []string
	b := newBreaker(clock, &transitions)

	_, _ = Execute(context.Background(), b, fail)
	_, _ = Execute(context.Background(), b, fail)

	clock.now = clock.now.Add(2 * time.Minute)
	got, err := Execute(context.Background(), b, ok)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)}
	var transitions []string
	b := newBreaker(clock, &transitions)

	_, _ = Execute(context.Background(), b, fail)
	_, _ = Execute(context.Background(), b, fail)
	clock.now = clock.now.Add(2 * time.Minute)

	_, err := Execute(context.Background(), b, fail)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreaker_IgnoresCancellation(t *testing.T) {
	b := New(Settings{Threshold: 1})

	_, _ = Execute(context.Background(), b, func(context.Context) (int, error) {
		return 0, context.Canceled
	})
	assert.Equal(t, StateClosed, b.State())
}
