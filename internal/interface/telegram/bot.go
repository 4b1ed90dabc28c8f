// Package telegram implements the Telegram interface of the timetable bot:
// receiving updates, routing them to handlers and managing the bot lifecycle.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tversu/timing-bot/internal/infrastructure/external/telegram"
	"github.com/tversu/timing-bot/internal/interface/telegram/middleware"
	"github.com/tversu/timing-bot/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOT CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// BotConfig contains configuration for the Telegram bot.
type BotConfig struct {
	// UseWebhook switches from long polling to webhook delivery.
	UseWebhook bool

	// WebhookURL is the public URL Telegram posts updates to.
	WebhookURL string

	// WebhookSecret is echoed by Telegram in X-Telegram-Bot-Api-Secret-Token.
	WebhookSecret string

	// MaxConcurrentUpdates limits concurrent update processing.
	MaxConcurrentUpdates int

	// HandlerTimeout bounds the handling of one update.
	HandlerTimeout time.Duration

	// GracefulShutdownTimeout is the timeout for graceful shutdown.
	GracefulShutdownTimeout time.Duration

	Logger *logger.Logger
}

// DefaultBotConfig returns sensible defaults.
func DefaultBotConfig() BotConfig {
	return BotConfig{
		MaxConcurrentUpdates:    50,
		HandlerTimeout:          15 * time.Second,
		GracefulShutdownTimeout: 30 * time.Second,
	}
}

// UpdateRouter routes one message.
type UpdateRouter interface {
	Route(ctx context.Context, msg *telegram.Message) error
}

// API is the part of the Telegram client the bot lifecycle uses.
type API interface {
	Sender
	GetMe(ctx context.Context) (*telegram.User, error)
	SetWebhook(ctx context.Context, url, secretToken string) error
	DeleteWebhook(ctx context.Context, dropPendingUpdates bool) error
	StartPolling(ctx context.Context, handler telegram.UpdateHandler) error
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT
// ══════════════════════════════════════════════════════════════════════════════

// Bot receives updates and passes them through the middleware chain:
// rate limit → recovery → router, timed by the metrics middleware.
type Bot struct {
	config BotConfig
	client API
	router UpdateRouter
	log    *logger.Logger

	rateLimiter *middleware.RateLimiter
	recovery    *middleware.RecoveryMiddleware
	metrics     *middleware.MetricsMiddleware

	running   bool
	runningMu sync.Mutex
	updateSem chan struct{}
	wg        sync.WaitGroup
}

// NewBot creates a bot.
func NewBot(
	config BotConfig,
	client API,
	router UpdateRouter,
	rateLimiter *middleware.RateLimiter,
	metrics *middleware.MetricsMiddleware,
) *Bot {
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.MaxConcurrentUpdates <= 0 {
		config.MaxConcurrentUpdates = DefaultBotConfig().MaxConcurrentUpdates
	}
	if config.HandlerTimeout <= 0 {
		config.HandlerTimeout = DefaultBotConfig().HandlerTimeout
	}
	if metrics == nil {
		metrics = middleware.NewMetricsMiddleware(nil)
	}

	recoveryConfig := middleware.DefaultRecoveryConfig()
	recoveryConfig.Logger = config.Logger

	return &Bot{
		config:      config,
		client:      client,
		router:      router,
		log:         config.Logger.Named("bot"),
		rateLimiter: rateLimiter,
		recovery:    middleware.NewRecoveryMiddleware(recoveryConfig),
		metrics:     metrics,
		updateSem:   make(chan struct{}, config.MaxConcurrentUpdates),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE MANAGEMENT
// ══════════════════════════════════════════════════════════════════════════════

// Run verifies the token and receives updates until ctx is done.
// In webhook mode updates arrive through HandleUpdate and Run only
// registers the webhook and waits.
func (b *Bot) Run(ctx context.Context) error {
	b.runningMu.Lock()
	if b.running {
		b.runningMu.Unlock()
		return errors.New("bot is already running")
	}
	b.running = true
	b.runningMu.Unlock()

	defer func() {
		b.runningMu.Lock()
		b.running = false
		b.runningMu.Unlock()
	}()

	me, err := b.client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("verify bot token: %w", err)
	}
	b.log.Info("bot verified",
		logger.Int64("id", me.ID),
		logger.String("username", me.Username),
		logger.Bool("webhook", b.config.UseWebhook),
	)

	if b.rateLimiter != nil {
		go b.rateLimiter.Run(ctx)
	}

	if b.config.UseWebhook {
		if err := b.client.SetWebhook(ctx, b.config.WebhookURL, b.config.WebhookSecret); err != nil {
			return fmt.Errorf("set webhook: %w", err)
		}
		<-ctx.Done()
		return nil
	}

	if err := b.client.DeleteWebhook(ctx, false); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return b.client.StartPolling(ctx, b.dispatch)
}

// Wait blocks until in-flight updates finish or the shutdown timeout passes.
func (b *Bot) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	timeout := b.config.GracefulShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultBotConfig().GracefulShutdownTimeout
	}

	select {
	case <-done:
		b.log.Info("all handlers completed gracefully")
		return nil
	case <-time.After(timeout):
		b.log.Warn("graceful shutdown timeout exceeded")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning returns whether the bot is currently running.
func (b *Bot) IsRunning() bool {
	b.runningMu.Lock()
	defer b.runningMu.Unlock()
	return b.running
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE HANDLING
// ══════════════════════════════════════════════════════════════════════════════

// dispatch handles an update in the background so long polling keeps
// reading while slow feed requests are in flight.
func (b *Bot) dispatch(ctx context.Context, update *telegram.Update) error {
	select {
	case b.updateSem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() { <-b.updateSem }()
		// The update outlives a cancelled poll: finish it on a fresh context.
		_ = b.HandleUpdate(context.WithoutCancel(ctx), update)
	}()
	return nil
}

// HandleUpdate processes a single update synchronously. The webhook
// endpoint calls it directly.
func (b *Bot) HandleUpdate(ctx context.Context, update *telegram.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return nil
	}
	if !telegram.IsPrivateChat(msg) {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, b.config.HandlerTimeout)
	defer cancel()

	requestID := uuid.NewString()
	log := b.log.WithRequestID(requestID).With(
		logger.Int64("update_id", update.UpdateID),
		logger.TelegramID(msg.From.ID),
	)
	ctx = middleware.ContextWithRequestID(ctx, requestID)
	ctx = middleware.ContextWithTelegramID(ctx, msg.From.ID)
	ctx = logger.WithContext(ctx, log)

	action := Action(msg)
	rc := b.metrics.Start(action)

	if b.rateLimiter != nil {
		if res := b.rateLimiter.Check(msg.From.ID); !res.Allowed {
			log.Debug("rate limited", logger.Duration("retry_after", res.RetryAfter))
			rc.End(middleware.RateLimitedError())
			return nil
		}
	}

	result := b.recovery.RecoverWithHandler(ctx, msg.From.ID, action, func() error {
		return b.router.Route(ctx, msg)
	})

	if result.Recovered {
		rc.End(middleware.PanicError())
		_, err := b.client.SendMessage(ctx, telegram.SendMessageParams{
			ChatID: msg.Chat.ID,
			Text:   result.UserMessage,
		})
		return err
	}

	rc.End(result.Err)
	if result.Err != nil {
		if telegram.IsBlocked(result.Err) {
			log.Info("user blocked the bot")
			return nil
		}
		log.Error("failed to handle update", logger.String("action", action), logger.Err(result.Err))
		return result.Err
	}

	log.Debug("update handled", logger.String("action", action))
	return nil
}
