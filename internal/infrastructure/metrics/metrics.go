// Package metrics exposes Prometheus collectors for the bot: the number of
// users, handled updates, timing query latency and feed requests.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "timingbot"

// UserCounter is the part of the user repository the users gauge reads.
type UserCounter interface {
	Count(ctx context.Context) (int, error)
	CountRegistered(ctx context.Context) (int, error)
}

// Collector owns the registry and every bot metric.
type Collector struct {
	registry *prometheus.Registry

	users         *prometheus.GaugeVec
	updates       *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	feedRequests  *prometheus.CounterVec
	feedDuration  *prometheus.HistogramVec
}

// New creates a collector on a fresh registry with Go and process metrics.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		users: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "users",
			Help:      "Number of bot users by registration status.",
		}, []string{"status"}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Telegram updates handled, by action and outcome.",
		}, []string{"action", "outcome"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Time spent answering a user action.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"action"}),
		feedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_requests_total",
			Help:      "Requests to the timetable feed, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		feedDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_request_duration_seconds",
			Help:      "Timetable feed request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.users,
		c.updates,
		c.queryDuration,
		c.feedRequests,
		c.feedDuration,
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveUpdate records one handled user action.
func (c *Collector) ObserveUpdate(action, outcome string, took time.Duration) {
	c.updates.WithLabelValues(action, outcome).Inc()
	c.queryDuration.WithLabelValues(action).Observe(took.Seconds())
}

// ObserveFeedRequest records one feed request. Its signature matches the
// feed client's OnRequest hook.
func (c *Collector) ObserveFeedRequest(operation, outcome string, took time.Duration) {
	c.feedRequests.WithLabelValues(operation, outcome).Inc()
	c.feedDuration.WithLabelValues(operation).Observe(took.Seconds())
}

// RefreshUsers reads user counts and updates the users gauge.
func (c *Collector) RefreshUsers(ctx context.Context, users UserCounter) error {
	total, err := users.Count(ctx)
	if err != nil {
		return err
	}
	registered, err := users.CountRegistered(ctx)
	if err != nil {
		return err
	}
	c.users.WithLabelValues("registered").Set(float64(registered))
	c.users.WithLabelValues("registering").Set(float64(total - registered))
	return nil
}
