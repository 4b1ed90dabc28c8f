// Package http implements the HTTP surface of the timetable bot: health
// probes, Prometheus metrics, the Telegram webhook, calendar export and the
// admin API for week parity anchors.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/tversu/timing-bot/internal/application/query"
	"github.com/tversu/timing-bot/internal/domain/calendar"
	"github.com/tversu/timing-bot/internal/domain/user"
	"github.com/tversu/timing-bot/internal/interface/http/handlers"
	"github.com/tversu/timing-bot/pkg/logger"
	"github.com/tversu/timing-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host - address to bind (default: "0.0.0.0").
	Host string

	// Port - port to listen on (default: 8080).
	Port int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// AllowedOrigins - CORS origins for the calendar feed.
	AllowedOrigins []string

	// AdminRateLimit - admin requests per minute per IP.
	AdminRateLimit int

	// AdminTokenHash - bcrypt hash of the admin bearer token. Empty disables /admin.
	AdminTokenHash string

	// WebhookPath - where Telegram posts updates.
	WebhookPath string

	// WebhookSecret - expected X-Telegram-Bot-Api-Secret-Token value.
	WebhookSecret string

	// CalendarExport - serve /calendar/{faculty}/{group}.ics.
	CalendarExport bool
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		AllowedOrigins: []string{"*"},
		AdminRateLimit: 30,
		WebhookPath:    "/telegram/webhook",
		CalendarExport: true,
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// WeekLessons returns the lessons of the current or next week of a profile.
type WeekLessons interface {
	WeekLessons(ctx context.Context, p user.Profile, nextWeek bool) (*query.DaySchedule, error)
}

// Dependencies contains everything the HTTP handlers use. Nil members
// switch the matching routes off.
type Dependencies struct {
	Logger *logger.Logger

	HealthChecker handlers.HealthChecker

	// Metrics serves /metrics.
	Metrics http.Handler

	// Webhook receives Telegram updates.
	Webhook handlers.UpdateFunc

	// Anchors backs the admin API.
	Anchors calendar.Repository

	// Lessons and Clock back the calendar export.
	Lessons WeekLessons
	Clock   timeutil.Clock
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     *chi.Mux
	logger     *logger.Logger
	validate   *validator.Validate

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(config Config, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.HealthChecker == nil {
		deps.HealthChecker = handlers.NewNoopHealthChecker()
	}
	if deps.Clock == nil {
		deps.Clock = timeutil.NewSystemClock(timeutil.MoscowTZ)
	}

	s := &Server{
		config:   config,
		deps:     deps,
		router:   chi.NewRouter(),
		logger:   deps.Logger.Named("http"),
		validate: validator.New(),
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         config.Address(),
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) setupRoutes() {
	r := s.router
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(handlers.RequestLogger(s.logger))
	r.Use(handlers.Recoverer(s.logger))
	r.Use(handlers.SecurityHeaders)

	// ─────────────────────────────────────────────────────────────────────────
	// Health & Status
	// ─────────────────────────────────────────────────────────────────────────
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/live", s.handleLive)

	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Telegram webhook
	// ─────────────────────────────────────────────────────────────────────────
	if s.deps.Webhook != nil {
		r.Method(http.MethodPost, s.config.WebhookPath,
			handlers.NewTelegramWebhook(s.config.WebhookSecret, s.deps.Webhook, s.logger))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Calendar export
	// ─────────────────────────────────────────────────────────────────────────
	if s.config.CalendarExport && s.deps.Lessons != nil {
		r.Group(func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: s.config.AllowedOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodOptions},
				MaxAge:         300,
			}))
			r.Get("/calendar/{faculty}/{group}.ics", s.handleCalendar)
		})
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Admin API
	// ─────────────────────────────────────────────────────────────────────────
	if s.config.AdminTokenHash != "" && s.deps.Anchors != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Use(httprate.LimitByIP(max(s.config.AdminRateLimit, 1), time.Minute))
			r.Use(handlers.AdminAuth(s.config.AdminTokenHash))

			r.Get("/anchors", s.handleListAnchors)
			r.Put("/anchors/{faculty}", s.handlePutAnchor)
			r.Delete("/anchors/{faculty}", s.handleDeleteAnchor)
		})
	}
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server is already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", logger.String("addr", s.config.Address()))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.setStopped()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(shutdownCtx)
	s.setStopped()
	return err
}

func (s *Server) setStopped() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// Uptime returns how long the server has been running.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startedAt)
}
