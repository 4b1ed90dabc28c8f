// Package tversu implements the client of the university timetable API:
// the faculty/program/course/group directory and the weekly grids.
package tversu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tversu/timing-bot/internal/domain/shared"
	"github.com/tversu/timing-bot/internal/domain/timetable"
	"github.com/tversu/timing-bot/pkg/circuitbreaker"
	"github.com/tversu/timing-bot/pkg/logger"
	"github.com/tversu/timing-bot/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the timetable API client.
type ClientConfig struct {
	BaseURL string
	APIKey  string

	// Timeout of a single HTTP request
	Timeout time.Duration

	// Requests per second and burst towards the API
	RateLimit float64
	Burst     int

	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	BreakerThreshold int
	BreakerCooldown  time.Duration

	// OnRequest observes every finished HTTP call (for metrics).
	OnRequest func(operation, outcome string, took time.Duration)

	Logger *logger.Logger

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:          baseURL,
		Timeout:          15 * time.Second,
		RateLimit:        5,
		Burst:            10,
		MaxRetries:       3,
		RetryBaseDelay:   500 * time.Millisecond,
		RetryMaxDelay:    10 * time.Second,
		BreakerThreshold: 5,
		BreakerCooldown:  30 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client talks to the timetable API. It implements timetable.Feed and
// timetable.Directory.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	log        *logger.Logger
	limiter    *rate.Limiter
	breaker    *circuitbreaker.Breaker
	policy     retry.Policy
	mapper     *Mapper
}

var (
	_ timetable.Feed      = (*Client)(nil)
	_ timetable.Directory = (*Client)(nil)
)

// NewClient creates a new timetable API client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	log := config.Logger.Named("tversu")

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	limit := rate.Limit(config.RateLimit)
	if config.RateLimit <= 0 {
		limit = rate.Inf
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		log:        log,
		limiter:    rate.NewLimiter(limit, max(config.Burst, 1)),
		breaker: circuitbreaker.New(circuitbreaker.Settings{
			Name:      "timetable-api",
			Threshold: config.BreakerThreshold,
			Cooldown:  config.BreakerCooldown,
			IsFailure: shared.IsRetryable,
			OnStateChange: func(name string, from, to circuitbreaker.State) {
				log.Warn("circuit breaker state changed",
					logger.String("breaker", name),
					logger.String("from", from.String()),
					logger.String("to", to.String()),
				)
			},
		}),
		policy: retry.Policy{
			Attempts:    config.MaxRetries + 1,
			BaseDelay:   config.RetryBaseDelay,
			MaxDelay:    config.RetryMaxDelay,
			Jitter:      0.2,
			ShouldRetry: shared.IsRetryable,
			OnRetry: func(attempt int, err error, wait time.Duration) {
				log.Debug("retrying timetable request",
					logger.Int("attempt", attempt),
					logger.Duration("wait", wait),
					logger.Err(err),
				)
			},
		},
		mapper: NewMapper(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// TIMETABLE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Cells fetches the raw weekly grid of a group.
func (c *Client) Cells(ctx context.Context, cohort timetable.Cohort) ([]timetable.Cell, error) {
	path := fmt.Sprintf("/faculties/%s/groups/%s/cells",
		url.PathEscape(cohort.Faculty), url.PathEscape(cohort.Group))

	var response APIResponse[[]CellDTO]
	if err := c.doRequest(ctx, "cells", path, &response); err != nil {
		if shared.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", shared.ErrCohortNotFound, cohort)
		}
		return nil, fmt.Errorf("get cells of %s: %w", cohort, err)
	}

	cells, err := c.mapper.CellsFromDTO(response.Data)
	if err != nil {
		return nil, fmt.Errorf("get cells of %s: %w", cohort, err)
	}
	return cells, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DIRECTORY OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Faculties lists all faculties.
func (c *Client) Faculties(ctx context.Context) ([]string, error) {
	var response APIResponse[[]NamedDTO]
	if err := c.doRequest(ctx, "faculties", "/faculties", &response); err != nil {
		return nil, fmt.Errorf("get faculties: %w", err)
	}
	return c.mapper.Names(response.Data)
}

// Programs lists the study programs of a faculty.
func (c *Client) Programs(ctx context.Context, faculty string) ([]string, error) {
	path := facultyPath(faculty) + "/programs"

	var response APIResponse[[]NamedDTO]
	if err := c.doRequest(ctx, "programs", path, &response); err != nil {
		if shared.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", shared.ErrFacultyNotFound, faculty)
		}
		return nil, fmt.Errorf("get programs: %w", err)
	}
	return c.mapper.Names(response.Data)
}

// Courses lists the course numbers of a program.
func (c *Client) Courses(ctx context.Context, faculty, program string) ([]int, error) {
	path := programPath(faculty, program) + "/courses"

	var response APIResponse[[]CourseDTO]
	if err := c.doRequest(ctx, "courses", path, &response); err != nil {
		return nil, fmt.Errorf("get courses: %w", err)
	}
	return c.mapper.Courses(response.Data)
}

// Groups lists the groups of a course.
func (c *Client) Groups(ctx context.Context, faculty, program string, course int) ([]string, error) {
	path := coursePath(faculty, program, course) + "/groups"

	var response APIResponse[[]NamedDTO]
	if err := c.doRequest(ctx, "groups", path, &response); err != nil {
		return nil, fmt.Errorf("get groups: %w", err)
	}
	return c.mapper.Names(response.Data)
}

// SubgroupCount returns how many subgroups a group is split into.
func (c *Client) SubgroupCount(ctx context.Context, faculty, program string, course int, group string) (int, error) {
	path := coursePath(faculty, program, course) + "/groups/" + url.PathEscape(group) + "/subgroups"

	var response APIResponse[SubgroupsDTO]
	if err := c.doRequest(ctx, "subgroups", path, &response); err != nil {
		return 0, fmt.Errorf("get subgroups: %w", err)
	}
	if err := c.mapper.validate.Struct(response.Data); err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrFeedInvalidResponse, err)
	}
	return response.Data.Count, nil
}

func facultyPath(faculty string) string {
	return "/faculties/" + url.PathEscape(faculty)
}

func programPath(faculty, program string) string {
	return facultyPath(faculty) + "/programs/" + url.PathEscape(program)
}

func coursePath(faculty, program string, course int) string {
	return programPath(faculty, program) + "/courses/" + strconv.Itoa(course)
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// doRequest performs a GET with rate limiting, circuit breaking and retries.
func (c *Client) doRequest(ctx context.Context, operation, path string, result any) error {
	_, err := circuitbreaker.Execute(ctx, c.breaker, func(ctx context.Context) (struct{}, error) {
		return retry.Do(ctx, c.policy, func(ctx context.Context) (struct{}, error) {
			if err := c.limiter.Wait(ctx); err != nil {
				return struct{}{}, retry.Stop(fmt.Errorf("rate limiter: %w", err))
			}
			return struct{}{}, c.doSingleRequest(ctx, operation, path, result)
		})
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return fmt.Errorf("%w: %w", shared.ErrFeedUnavailable, err)
	}
	return err
}

// doSingleRequest performs one HTTP request and classifies the outcome.
func (c *Client) doSingleRequest(ctx context.Context, operation, path string, result any) error {
	started := time.Now()
	outcome := "ok"
	defer func() {
		if c.config.OnRequest != nil {
			c.config.OnRequest(operation, outcome, time.Since(started))
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		outcome = "error"
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	c.log.Debug("timetable api request", logger.Operation(operation), logger.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = "network"
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", shared.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = "network"
		return fmt.Errorf("%w: read response: %v", shared.ErrFeedUnavailable, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		outcome = "rate_limited"
		return fmt.Errorf("%w: %w", shared.ErrFeedRateLimited, &RateLimitError{After: parseRetryAfter(resp.Header.Get("Retry-After"))})
	}

	if resp.StatusCode >= 400 {
		outcome = strconv.Itoa(resp.StatusCode)
		apiErr := &APIErrorDTO{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		_ = json.Unmarshal(body, apiErr)
		apiErr.Status = resp.StatusCode

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %w", shared.ErrNotFound, apiErr)
		case resp.StatusCode >= 500:
			return fmt.Errorf("%w: %w", shared.ErrFeedUnavailable, apiErr)
		default:
			return fmt.Errorf("%w: %w", shared.ErrExternalService, apiErr)
		}
	}

	if err := json.Unmarshal(body, result); err != nil {
		outcome = "invalid"
		return fmt.Errorf("%w: %v", shared.ErrFeedInvalidResponse, err)
	}
	return nil
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(value string) time.Duration {
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	return time.Second
}
