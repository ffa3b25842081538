// Package metrics implements the LoginMetrics port with Prometheus collectors
// that are flushed to a node_exporter textfile after every login outcome.
package metrics

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ericfisherdev/hotspotlogin/internal/domain/model"
	"github.com/ericfisherdev/hotspotlogin/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.LoginMetrics = (*Textfile)(nil)

const namespace = "hotspotlogin"

// Textfile holds the login collectors and the file they are written to.
type Textfile struct {
	path string
	reg  *prometheus.Registry

	attempts         *prometheus.CounterVec
	attemptDuration  prometheus.Histogram
	outcomes         *prometheus.CounterVec
	lastSuccess      prometheus.Gauge
	lastOutcomeTries prometheus.Gauge
}

// NewTextfile registers the collectors on a fresh registry. An empty path keeps
// the collectors in memory only.
func NewTextfile(path string) *Textfile {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Textfile{
		path: path,
		reg:  reg,
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login form submissions by result",
		}, []string{"result"}),
		attemptDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "login_attempt_duration_seconds",
			Help:      "Duration of a single login form submission",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 12},
		}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_outcomes_total",
			Help:      "Completed login invocations by reason",
		}, []string{"reason"}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful login",
		}),
		lastOutcomeTries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_outcome_attempts",
			Help:      "Attempts used by the most recent login invocation",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Textfile) Registry() *prometheus.Registry {
	return m.reg
}

// ObserveAttempt counts one form submission.
func (m *Textfile) ObserveAttempt(err error, duration time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.attempts.WithLabelValues(result).Inc()
	m.attemptDuration.Observe(duration.Seconds())
}

// ObserveOutcome counts the outcome and rewrites the textfile.
func (m *Textfile) ObserveOutcome(outcome model.LoginOutcome) {
	m.outcomes.WithLabelValues(string(outcome.Reason)).Inc()
	m.lastOutcomeTries.Set(float64(outcome.Attempt))
	if outcome.Success {
		m.lastSuccess.Set(float64(outcome.Timestamp.Unix()))
	}

	if err := m.Flush(); err != nil {
		slog.Warn("metrics textfile write failed", "path", m.path, "error", err)
	}
}

// Flush writes the current values to the textfile. It is a no-op without a path.
func (m *Textfile) Flush() error {
	if m.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(m.path, m.reg)
}
