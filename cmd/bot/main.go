// Package main - точка входа Telegram-бота расписания ТвГУ.
//
// Бот ведёт пользователя через выбор факультета, направления, курса, группы
// и подгруппы, а затем отвечает на вопросы о текущей и следующей паре,
// занятиях сегодня, завтра и до конца недели, и о чётности недели.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/tversu/timing-bot/config"
	"github.com/tversu/timing-bot/internal/application/command"
	"github.com/tversu/timing-bot/internal/application/query"
	"github.com/tversu/timing-bot/internal/domain/calendar"
	"github.com/tversu/timing-bot/internal/domain/timetable"
	"github.com/tversu/timing-bot/internal/infrastructure/external/telegram"
	"github.com/tversu/timing-bot/internal/infrastructure/external/tversu"
	"github.com/tversu/timing-bot/internal/infrastructure/metrics"
	"github.com/tversu/timing-bot/internal/infrastructure/persistence/postgres"
	"github.com/tversu/timing-bot/internal/infrastructure/persistence/redis"
	"github.com/tversu/timing-bot/internal/infrastructure/scheduler"
	"github.com/tversu/timing-bot/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/tversu/timing-bot/internal/interface/http"
	"github.com/tversu/timing-bot/internal/interface/http/handlers"
	bot "github.com/tversu/timing-bot/internal/interface/telegram"
	"github.com/tversu/timing-bot/internal/interface/telegram/handler"
	"github.com/tversu/timing-bot/internal/interface/telegram/middleware"
	"github.com/tversu/timing-bot/internal/interface/telegram/presenter"
	"github.com/tversu/timing-bot/pkg/logger"
	"github.com/tversu/timing-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		Format:    logger.Format(cfg.Observability.LogFormat),
		AddCaller: cfg.App.Debug,
	})
	defer func() { _ = log.Sync() }()

	log.Info("starting timetable bot",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("timezone", cfg.App.Location.String()),
	)
	clock := timeutil.NewSystemClock(cfg.App.Location)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. POSTGRESQL
	// ─────────────────────────────────────────────────────────────────────────
	conn, err := postgres.NewConnection(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	if cfg.Database.AutoMigrate {
		applied, err := postgres.NewMigrator(conn).Up(ctx)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("migrations applied", logger.Int("count", applied))
	}

	users := postgres.NewUserRepository(conn)
	var anchors calendar.Repository = postgres.NewAnchorRepository(conn, cfg.App.Location)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ВНЕШНЕЕ API РАСПИСАНИЯ И МЕТРИКИ
	// ─────────────────────────────────────────────────────────────────────────
	collector := metrics.New()

	feedConfig := tversu.DefaultClientConfig(cfg.Feed.BaseURL)
	feedConfig.APIKey = cfg.Feed.APIKey
	feedConfig.Timeout = cfg.Feed.RequestTimeout
	feedConfig.RateLimit = cfg.Feed.RateLimit
	feedConfig.Burst = cfg.Feed.RateLimitBurst
	feedConfig.MaxRetries = cfg.Feed.MaxRetries
	feedConfig.RetryBaseDelay = cfg.Feed.RetryBaseDelay
	feedConfig.RetryMaxDelay = cfg.Feed.RetryMaxDelay
	feedConfig.BreakerThreshold = cfg.Feed.CircuitBreakerThreshold
	feedConfig.BreakerCooldown = cfg.Feed.CircuitBreakerTimeout
	feedConfig.OnRequest = collector.ObserveFeedRequest
	feedConfig.Logger = log
	feed := tversu.NewClient(feedConfig)

	var directory timetable.Directory = feed

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("postgres", handlers.NewDatabaseCheck(conn))

	var warmer *redis.DirectoryCache
	if !cfg.Redis.Disabled {
		cache, err := redis.NewCache(ctx, redis.Config{
			URL:      cfg.Redis.URL,
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			log.Warn("redis unavailable, caching disabled", logger.Err(err))
		} else {
			defer func() { _ = cache.Close() }()
			health.AddCheck("redis", handlers.NewCacheCheck(cache))

			warmer = redis.NewDirectoryCache(feed, cache, cfg.Redis.DirectoryTTL)
			directory = warmer
			anchors = redis.NewAnchorCache(anchors, cache, cfg.Redis.AnchorTTL, cfg.App.Location)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	timing := query.NewTimingService(feed, calendar.NewResolver(anchors, clock), clock)
	registration := command.NewRegisterHandler(users, directory, clock, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. TELEGRAM
	// ─────────────────────────────────────────────────────────────────────────
	tgConfig := telegram.DefaultClientConfig(cfg.Telegram.Token)
	tgConfig.PollingTimeout = cfg.Telegram.PollingTimeout
	tgConfig.Logger = log
	tgClient := telegram.NewClient(tgConfig)

	keyboards := presenter.NewKeyboardBuilder()
	schedule := presenter.NewSchedulePresenter()
	router := bot.NewRouter(
		users,
		handler.NewStartHandler(registration, keyboards, schedule),
		handler.NewMenuHandler(timing, keyboards, schedule),
		handler.NewHelpHandler(keyboards, schedule),
		schedule,
		tgClient,
	)

	botConfig := bot.DefaultBotConfig()
	botConfig.UseWebhook = cfg.Telegram.UseWebhook
	botConfig.WebhookURL = cfg.Telegram.WebhookURL
	botConfig.WebhookSecret = cfg.Telegram.WebhookSecret
	botConfig.MaxConcurrentUpdates = cfg.Telegram.MaxConcurrentUpdates
	botConfig.HandlerTimeout = cfg.Telegram.HandlerTimeout
	botConfig.GracefulShutdownTimeout = cfg.App.ShutdownTimeout
	botConfig.Logger = log

	tgBot := bot.NewBot(
		botConfig,
		tgClient,
		router,
		middleware.NewRateLimiter(middleware.DefaultRateLimitConfig()),
		middleware.NewMetricsMiddleware(collector),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.AdminTokenHash = cfg.HTTP.AdminTokenHash
	httpConfig.CalendarExport = cfg.HTTP.CalendarExport
	httpConfig.WebhookSecret = cfg.Telegram.WebhookSecret

	httpDeps := httpserver.Dependencies{
		Logger:        log,
		HealthChecker: health,
		Anchors:       anchors,
		Lessons:       timing,
		Clock:         clock,
	}
	if cfg.Observability.MetricsEnabled {
		httpDeps.Metrics = collector.Handler()
	}
	if cfg.Telegram.UseWebhook {
		httpDeps.Webhook = tgBot.HandleUpdate
	}
	server := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ФОНОВЫЕ ЗАДАЧИ
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{Logger: log, Location: cfg.App.Location})
	if cfg.Scheduler.Enabled {
		if err := sched.Register(jobs.NewRefreshUserMetricsJob(collector, users), cfg.Scheduler.UserMetricsSpec); err != nil {
			return err
		}
		if warmer != nil {
			if err := sched.Register(jobs.NewWarmDirectoryJob(warmer, log), cfg.Scheduler.WarmDirectorySpec); err != nil {
				return err
			}
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(gctx); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := tgBot.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("telegram bot: %w", err)
		}
		return nil
	})

	if cfg.Scheduler.Enabled {
		if err := sched.Start(gctx); err != nil {
			return err
		}
		// Первичный прогрев, чтобы не ждать первого срабатывания cron.
		g.Go(func() error {
			for _, job := range sched.ListJobs() {
				if _, err := sched.RunNow(gctx, job.Name); err != nil {
					log.Warn("initial job run failed", logger.String("job", job.Name), logger.Err(err))
				}
			}
			return nil
		})
	}

	log.Info("bot is running",
		logger.String("http_address", httpConfig.Address()),
		logger.Bool("webhook", cfg.Telegram.UseWebhook),
	)

	err = g.Wait()

	log.Info("shutting down", logger.Duration("timeout", cfg.App.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.App.ShutdownTimeout)
	defer cancel()

	if sched.IsRunning() {
		if stopErr := sched.Stop(shutdownCtx); stopErr != nil {
			log.Warn("scheduler did not stop in time", logger.Err(stopErr))
		}
	}
	if waitErr := tgBot.Wait(shutdownCtx); waitErr != nil {
		log.Warn("in-flight updates were interrupted", logger.Err(waitErr))
	}

	if err != nil {
		return err
	}
	log.Info("shutdown completed")
	return nil
}
