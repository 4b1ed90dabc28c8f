package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/tversu/timing-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// METRICS MIDDLEWARE
// Times every action and reports it with a coarse outcome label.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateObserver receives one observation per handled action.
type UpdateObserver interface {
	ObserveUpdate(action, outcome string, took time.Duration)
}

// MetricsMiddleware measures handled actions.
type MetricsMiddleware struct {
	observer UpdateObserver
	now      func() time.Time
}

// NewMetricsMiddleware creates a metrics middleware. A nil observer disables it.
func NewMetricsMiddleware(observer UpdateObserver) *MetricsMiddleware {
	return &MetricsMiddleware{observer: observer, now: time.Now}
}

// RequestContext tracks one action in flight.
type RequestContext struct {
	m      *MetricsMiddleware
	action string
	start  time.Time
}

// Start begins timing an action.
func (m *MetricsMiddleware) Start(action string) *RequestContext {
	return &RequestContext{m: m, action: action, start: m.now()}
}

// End records the action with the outcome derived from err.
func (rc *RequestContext) End(err error) {
	if rc.m.observer == nil {
		return
	}
	rc.m.observer.ObserveUpdate(rc.action, Outcome(err), rc.m.now().Sub(rc.start))
}

// Outcome classifies an error for metric labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, shared.ErrRateLimited):
		return "rate_limited"
	case shared.IsNotFound(err):
		return "not_found"
	case shared.IsConfiguration(err):
		return "not_configured"
	case shared.IsExternalService(err):
		return "unavailable"
	case errors.Is(err, errPanic):
		return "panic"
	default:
		return "error"
	}
}

var (
	errPanic       = errors.New("handler panicked")
	errRateLimited = fmt.Errorf("%w: user sends too fast", shared.ErrRateLimited)
)

// RateLimitedError marks an update dropped by the rate limiter, for Outcome.
func RateLimitedError() error {
	return errRateLimited
}

// PanicError marks an action that panicked, for Outcome.
func PanicError() error {
	return errPanic
}
