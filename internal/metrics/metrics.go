// Package metrics exposes session activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"aimy/internal/stats"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Option func(*Manager)

func WithNamespace(ns string) Option {
	return func(m *Manager) { m.namespace = ns }
}

// WithRegistry registers the metrics on r instead of a private registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) { m.registry = r }
}

// Manager owns the metric vectors. It satisfies gamedata.Observer.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	sessionsStarted   *prometheus.CounterVec
	sessionsCompleted *prometheus.CounterVec
	shots             *prometheus.CounterVec
	expired           *prometheus.CounterVec
	sessionDuration   *prometheus.HistogramVec
	sessionAccuracy   *prometheus.HistogramVec
	activeRooms       prometheus.Gauge
	persistErrors     *prometheus.CounterVec
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{namespace: "aimy"}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.init()
	return m
}

func (m *Manager) init() {
	auto := promauto.With(m.registry)

	m.sessionsStarted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "sessions_started_total",
		Help:      "Sessions started, by mode",
	}, []string{"mode"})

	m.sessionsCompleted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "sessions_completed_total",
		Help:      "Sessions that reached their termination condition, by mode",
	}, []string{"mode"})

	m.shots = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "shots_total",
		Help:      "Shots fired, by mode and outcome",
	}, []string{"mode", "outcome"})

	m.expired = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "targets_expired_total",
		Help:      "Targets that expired before being hit, by mode",
	}, []string{"mode"})

	m.sessionDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "session_duration_seconds",
		Help:      "Session length from start to completion",
		Buckets:   []float64{5, 10, 20, 30, 60, 90, 120, 300},
	}, []string{"mode"})

	m.sessionAccuracy = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "session_accuracy_percent",
		Help:      "Final accuracy of completed sessions",
		Buckets:   prometheus.LinearBuckets(10, 10, 10),
	}, []string{"mode"})

	m.activeRooms = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "active_rooms",
		Help:      "Rooms currently held in memory",
	})

	m.persistErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "persist_errors_total",
		Help:      "Failed writes of session records, by sink",
	}, []string{"sink"})
}

func (m *Manager) SessionStarted(mode string) {
	m.sessionsStarted.WithLabelValues(mode).Inc()
}

func (m *Manager) Shot(mode string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.shots.WithLabelValues(mode, outcome).Inc()
}

func (m *Manager) TargetExpired(mode string) {
	m.expired.WithLabelValues(mode).Inc()
}

func (m *Manager) SessionCompleted(s stats.Summary, elapsed time.Duration) {
	m.sessionsCompleted.WithLabelValues(s.GameMode).Inc()
	m.sessionDuration.WithLabelValues(s.GameMode).Observe(elapsed.Seconds())
	m.sessionAccuracy.WithLabelValues(s.GameMode).Observe(float64(s.Accuracy))
}

func (m *Manager) SetActiveRooms(n int) {
	m.activeRooms.Set(float64(n))
}

func (m *Manager) PersistError(sink string) {
	m.persistErrors.WithLabelValues(sink).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
