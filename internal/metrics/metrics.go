// Package metrics holds the prometheus collectors of the service. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	AccessDeniedTotal  *prometheus.CounterVec
	LoginFailuresTotal prometheus.Counter
	ActiveSessions     prometheus.Gauge
	LiveFeeds          prometheus.Gauge
	FeedErrorsTotal    *prometheus.CounterVec
	ViewCacheHits      *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trimsdesk_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trimsdesk_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		AccessDeniedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trimsdesk_access_denied_total",
				Help: "Page activations refused by the access policy",
			},
			[]string{"page"},
		),
		LoginFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trimsdesk_login_failures_total",
				Help: "Failed login attempts",
			},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "trimsdesk_active_sessions",
				Help: "Authenticated sessions held in memory",
			},
		),
		LiveFeeds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "trimsdesk_live_feeds",
				Help: "Open live subscriptions on module data",
			},
		),
		FeedErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trimsdesk_feed_errors_total",
				Help: "Errors delivered on live subscriptions",
			},
			[]string{"store"},
		),
		ViewCacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trimsdesk_view_cache_total",
				Help: "View loads by cache result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AccessDeniedTotal,
		m.LoginFailuresTotal,
		m.ActiveSessions,
		m.LiveFeeds,
		m.FeedErrorsTotal,
		m.ViewCacheHits,
	)
	return m
}

// Denied counts a refused page activation.
func (m *Metrics) Denied(page string) {
	if m == nil {
		return
	}
	m.AccessDeniedTotal.WithLabelValues(page).Inc()
}

// LoginFailed counts a failed login.
func (m *Metrics) LoginFailed() {
	if m == nil {
		return
	}
	m.LoginFailuresTotal.Inc()
}

// SessionOpened and SessionClosed track in-memory sessions.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}

// FeedOpened and FeedClosed track live subscriptions.
func (m *Metrics) FeedOpened() {
	if m == nil {
		return
	}
	m.LiveFeeds.Inc()
}

func (m *Metrics) FeedClosed() {
	if m == nil {
		return
	}
	m.LiveFeeds.Dec()
}

// FeedError counts a subscription error for store.
func (m *Metrics) FeedError(store string) {
	if m == nil {
		return
	}
	m.FeedErrorsTotal.WithLabelValues(store).Inc()
}

// ViewLoad counts a view load as "hit" or "miss".
func (m *Metrics) ViewLoad(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ViewCacheHits.WithLabelValues(result).Inc()
}

// Middleware instruments echo requests. The route template is used as the
// path label so ids do not explode cardinality.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			status := strconv.Itoa(c.Response().Status)
			m.HTTPRequestsTotal.WithLabelValues(c.Request().Method, path, status).Inc()
			m.HTTPRequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
