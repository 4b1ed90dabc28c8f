// Package middleware contains Telegram bot middlewares for update processing.
package middleware

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/tversu/timing-bot/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOVERY MIDDLEWARE
// Catches panics in handlers so one broken update does not stop polling.
// ══════════════════════════════════════════════════════════════════════════════

// RecoveryConfig holds configuration for the recovery middleware.
type RecoveryConfig struct {
	// EnableStackTrace adds the goroutine stack to the panic log.
	EnableStackTrace bool

	// UserErrorMessage is the message sent to users when a panic occurs.
	UserErrorMessage string

	// MaxPanicsPerMinute caps how many panics are logged per minute.
	MaxPanicsPerMinute int

	// OnPanic is called for every recovered panic.
	OnPanic func(ctx context.Context, info *PanicInfo)

	Logger *logger.Logger
}

// DefaultRecoveryConfig returns sensible defaults for recovery middleware.
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		EnableStackTrace:   true,
		UserErrorMessage:   "😔 Что-то пошло не так. Попробуй ещё раз через пару минут.",
		MaxPanicsPerMinute: 100,
	}
}

// PanicInfo contains information about a recovered panic.
type PanicInfo struct {
	Error      error
	StackTrace string
	RequestID  string
	TelegramID int64
	Action     string
	Timestamp  time.Time
}

// RecoveryResult represents the result of running a handler.
type RecoveryResult struct {
	// Recovered indicates if a panic was recovered.
	Recovered bool

	// PanicInfo contains panic details (if recovered).
	PanicInfo *PanicInfo

	// UserMessage is the message to show to the user.
	UserMessage string

	// Err is the handler error when it returned normally.
	Err error
}

// RecoveryMiddleware recovers from panics in update handlers.
type RecoveryMiddleware struct {
	config  RecoveryConfig
	log     *logger.Logger
	limiter *panicRateLimiter
}

// NewRecoveryMiddleware creates a new recovery middleware.
func NewRecoveryMiddleware(config RecoveryConfig) *RecoveryMiddleware {
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	return &RecoveryMiddleware{
		config:  config,
		log:     config.Logger.Named("recovery"),
		limiter: newPanicRateLimiter(config.MaxPanicsPerMinute),
	}
}

// RecoverWithHandler executes a handler and recovers from any panic.
func (m *RecoveryMiddleware) RecoverWithHandler(
	ctx context.Context,
	telegramID int64,
	action string,
	handler func() error,
) (result *RecoveryResult) {
	defer func() {
		if r := recover(); r != nil {
			result = m.handlePanic(ctx, r, telegramID, action)
		}
	}()

	return &RecoveryResult{Err: handler()}
}

func (m *RecoveryMiddleware) handlePanic(ctx context.Context, value any, telegramID int64, action string) *RecoveryResult {
	info := &PanicInfo{
		Error:      toError(value),
		RequestID:  RequestIDFromContext(ctx),
		TelegramID: telegramID,
		Action:     action,
		Timestamp:  time.Now(),
	}
	if m.config.EnableStackTrace {
		info.StackTrace = string(debug.Stack())
	}

	if m.limiter.allow() {
		m.log.Error("panic recovered",
			logger.Err(info.Error),
			logger.String("request_id", info.RequestID),
			logger.TelegramID(telegramID),
			logger.String("action", action),
			logger.String("stack", info.StackTrace),
		)
	}
	if m.config.OnPanic != nil {
		m.config.OnPanic(ctx, info)
	}

	return &RecoveryResult{
		Recovered:   true,
		PanicInfo:   info,
		UserMessage: m.config.UserErrorMessage,
	}
}

func toError(value any) error {
	switch v := value.(type) {
	case error:
		return v
	case string:
		return fmt.Errorf("%s", v)
	default:
		return fmt.Errorf("panic: %v", v)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PANIC RATE LIMITER
// ══════════════════════════════════════════════════════════════════════════════

type panicRateLimiter struct {
	mu        sync.Mutex
	count     int
	maxPerMin int
	window    time.Time
}

func newPanicRateLimiter(maxPerMin int) *panicRateLimiter {
	return &panicRateLimiter{maxPerMin: maxPerMin, window: time.Now()}
}

func (p *panicRateLimiter) allow() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if now.Sub(p.window) > time.Minute {
		p.count = 0
		p.window = now
	}
	if p.count >= p.maxPerMin {
		return false
	}
	p.count++
	return true
}
