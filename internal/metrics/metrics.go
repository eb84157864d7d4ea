// Package metrics exposes prometheus counters for analyses and user feedback.
//
// Every recording method is safe on a nil *Metrics, so components can be
// built without instrumentation.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scanio_ide"

// Metrics holds the collectors of one extension instance.
type Metrics struct {
	registry *prometheus.Registry

	// AnalysesTotal counts finished analyses. Labels: outcome.
	AnalysesTotal *prometheus.CounterVec
	// FindingsTotal counts findings of complete batches. Labels: result (accepted, rejected_lines, rejected_text, rejected_foreign).
	FindingsTotal *prometheus.CounterVec
	// AnalysisDuration measures submit-to-outcome time.
	AnalysisDuration prometheus.Histogram
	// FeedbackTotal counts discard and endorse actions. Labels: action, status (sent, failed).
	FeedbackTotal *prometheus.CounterVec
	// StoredFindings is the number of findings held in the store.
	StoredFindings prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		AnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "total",
			Help:      "Finished analyses by outcome",
		}, []string{"outcome"}),
		FindingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "findings_total",
			Help:      "Findings of complete batches by result",
		}, []string{"result"}),
		AnalysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Time from submission to outcome",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
		FeedbackTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feedback",
			Name:      "total",
			Help:      "Discard and endorse actions by delivery status",
		}, []string{"action", "status"}),
		StoredFindings: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "findings",
			Help:      "Findings currently held in the store",
		}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAnalysis counts an analysis outcome and how long it took.
func (m *Metrics) RecordAnalysis(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(outcome).Inc()
	m.AnalysisDuration.Observe(took.Seconds())
}

// RecordFindings adds n findings under result.
func (m *Metrics) RecordFindings(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.FindingsTotal.WithLabelValues(result).Add(float64(n))
}

// RecordFeedback counts one discard or endorse notification.
func (m *Metrics) RecordFeedback(action string, sent bool) {
	if m == nil {
		return
	}
	status := "sent"
	if !sent {
		status = "failed"
	}
	m.FeedbackTotal.WithLabelValues(action, status).Inc()
}

// SetStored records the current size of the store.
func (m *Metrics) SetStored(n int) {
	if m == nil {
		return
	}
	m.StoredFindings.Set(float64(n))
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger hclog.Logger) error {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown failed", "error", err)
		}
		return nil
	}
}
