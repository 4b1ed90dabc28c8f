package middleware

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tversu/timing-bot/internal/domain/shared"
)

func TestRecovery_ReturnsHandlerError(t *testing.T) {
	m := NewRecoveryMiddleware(DefaultRecoveryConfig())
	boom := errors.New("boom")

	result := m.RecoverWithHandler(context.Background(), 1, "today", func() error { return boom })

	assert.False(t, result.Recovered)
	assert.ErrorIs(t, result.Err, boom)
}

func TestRecovery_CatchesPanic(t *testing.T) {
	var seen *PanicInfo
	cfg := DefaultRecoveryConfig()
	cfg.OnPanic = func(_ context.Context, info *PanicInfo) { seen = info }
	m := NewRecoveryMiddleware(cfg)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	result := m.RecoverWithHandler(ctx, 42, "current", func() error { panic("nil map") })

	require.True(t, result.Recovered)
	assert.Equal(t, cfg.UserErrorMessage, result.UserMessage)
	require.NotNil(t, seen)
	assert.Equal(t, "req-1", seen.RequestID)
	assert.Equal(t, int64(42), seen.TelegramID)
	assert.EqualError(t, seen.Error, "nil map")
	assert.NotEmpty(t, seen.StackTrace)
}

func TestRateLimiter_BurstThenDeny(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 60, BurstSize: 2, IdleTTL: time.Minute})
	now := time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Check(1).Allowed)
	assert.True(t, rl.Check(1).Allowed)

	denied := rl.Check(1)
	assert.False(t, denied.Allowed)
	assert.InDelta(t, time.Second, denied.RetryAfter, float64(10*time.Millisecond))

	// Other users have their own bucket.
	assert.True(t, rl.Check(2).Allowed)

	now = now.Add(time.Second)
	assert.True(t, rl.Check(1).Allowed)
}

func TestRateLimiter_CleanupDropsIdleUsers(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 60, BurstSize: 1, IdleTTL: time.Minute})
	now := time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Check(1)
	now = now.Add(30 * time.Second)
	rl.Check(2)
	now = now.Add(45 * time.Second)

	rl.cleanup()
	assert.Equal(t, 1, rl.Len())
}

type recordedUpdate struct {
	action, outcome string
	took            time.Duration
}

type recorder struct{ got []recordedUpdate }

func (r *recorder) ObserveUpdate(action, outcome string, took time.Duration) {
	r.got = append(r.got, recordedUpdate{action, outcome, took})
}

func TestMetrics_RecordsOutcome(t *testing.T) {
	rec := &recorder{}
	m := NewMetricsMiddleware(rec)
	start := time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return start }

	rc := m.Start("today")
	start = start.Add(150 * time.Millisecond)
	rc.End(fmt.Errorf("load: %w", shared.ErrFeedUnavailable))

	require.Len(t, rec.got, 1)
	assert.Equal(t, recordedUpdate{"today", "unavailable", 150 * time.Millisecond}, rec.got[0])
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "not_found", Outcome(shared.ErrCohortNotFound))
	assert.Equal(t, "not_configured", Outcome(shared.ErrAnchorNotConfigured))
	assert.Equal(t, "rate_limited", Outcome(shared.ErrFeedRateLimited))
	assert.Equal(t, "panic", Outcome(PanicError()))
	assert.Equal(t, "error", Outcome(errors.New("x")))
}
