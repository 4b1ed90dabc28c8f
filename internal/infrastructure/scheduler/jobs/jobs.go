// Package jobs contains the scheduled maintenance jobs of the bot.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/tversu/timing-bot/internal/infrastructure/metrics"
	"github.com/tversu/timing-bot/pkg/logger"
)

// Job names as they appear in logs and timingctl output.
const (
	RefreshUserMetricsName = "refresh_user_metrics"
	WarmDirectoryName      = "warm_directory"
)

// ══════════════════════════════════════════════════════════════════════════════
// REFRESH USER METRICS
// ══════════════════════════════════════════════════════════════════════════════

// UserGauge publishes user counts.
type UserGauge interface {
	RefreshUsers(ctx context.Context, users metrics.UserCounter) error
}

// RefreshUserMetricsJob recounts registered and in-progress users for the
// users gauge.
type RefreshUserMetricsJob struct {
	gauge   UserGauge
	users   metrics.UserCounter
	timeout time.Duration
}

// NewRefreshUserMetricsJob creates the job.
func NewRefreshUserMetricsJob(gauge UserGauge, users metrics.UserCounter) *RefreshUserMetricsJob {
	return &RefreshUserMetricsJob{gauge: gauge, users: users, timeout: 30 * time.Second}
}

// Name implements scheduler.Job.
func (j *RefreshUserMetricsJob) Name() string { return RefreshUserMetricsName }

// Description implements scheduler.Job.
func (j *RefreshUserMetricsJob) Description() string {
	return "Recounts users for the timingbot_users gauge"
}

// Run implements scheduler.Job.
func (j *RefreshUserMetricsJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	if err := j.gauge.RefreshUsers(ctx, j.users); err != nil {
		return fmt.Errorf("refresh user metrics: %w", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// WARM DIRECTORY
// ══════════════════════════════════════════════════════════════════════════════

// DirectoryWarmer preloads directory lists into the cache.
type DirectoryWarmer interface {
	Warm(ctx context.Context) (int, error)
}

// WarmDirectoryJob refreshes the cached faculty and program lists so that
// registration keeps working while the feed is briefly down.
type WarmDirectoryJob struct {
	warmer  DirectoryWarmer
	logger  *logger.Logger
	timeout time.Duration
}

// NewWarmDirectoryJob creates the job.
func NewWarmDirectoryJob(warmer DirectoryWarmer, log *logger.Logger) *WarmDirectoryJob {
	if log == nil {
		log = logger.Nop()
	}
	return &WarmDirectoryJob{
		warmer:  warmer,
		logger:  log.With(logger.Component("warm_directory")),
		timeout: 2 * time.Minute,
	}
}

// Name implements scheduler.Job.
func (j *WarmDirectoryJob) Name() string { return WarmDirectoryName }

// Description implements scheduler.Job.
func (j *WarmDirectoryJob) Description() string {
	return "Reloads faculty and program lists into Redis"
}

// Run implements scheduler.Job.
func (j *WarmDirectoryJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	n, err := j.warmer.Warm(ctx)
	if err != nil {
		return fmt.Errorf("warm directory: %w", err)
	}
	j.logger.Info("directory cache warmed", logger.Int("entries", n))
	return nil
}
