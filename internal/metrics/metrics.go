// Package metrics provides Prometheus metrics for the poll loop.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/grycap/onetrigger/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Recorder holds the collectors of one process and observes cycle outcomes
type Recorder struct {
	registry *prometheus.Registry
	logger   zerolog.Logger

	cyclesTotal     *prometheus.CounterVec
	cycleDuration   prometheus.Histogram
	filesTracked    prometheus.Gauge
	newFilesTotal   prometheus.Counter
	deliveriesTotal *prometheus.CounterVec
	retryAttempts   prometheus.Gauge
}

// NewRecorder registers the collectors on a fresh registry
func NewRecorder(logger zerolog.Logger) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		logger:   logger.With().Str("component", "Metrics").Logger(),

		// Cycle metrics
		cyclesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onetrigger_cycles_total",
				Help: "Total number of poll cycles",
			},
			[]string{"result"},
		),
		cycleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "onetrigger_cycle_duration_seconds",
				Help:    "Duration of successful poll cycles in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		filesTracked: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "onetrigger_files_tracked",
				Help: "Number of regular files in the known set",
			},
		),
		newFilesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "onetrigger_new_files_total",
				Help: "Total number of newly detected files",
			},
		),

		// Webhook metrics
		deliveriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onetrigger_deliveries_total",
				Help: "Total webhook deliveries",
			},
			[]string{"result"},
		),
		retryAttempts: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "onetrigger_retry_attempts",
				Help: "Consecutive failed cycle attempts",
			},
		),
	}
}

// Registry returns the registry holding the collectors
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler returns the Prometheus metrics HTTP handler
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// CycleCompleted records a successful cycle
func (r *Recorder) CycleCompleted(report models.CycleReport) {
	r.cyclesTotal.WithLabelValues(cycleResult(report.Bootstrap)).Inc()
	r.cycleDuration.Observe(report.Duration().Seconds())
	r.filesTracked.Set(float64(report.FilesSeen))
	r.newFilesTotal.Add(float64(len(report.NewFiles)))
	r.retryAttempts.Set(0)

	for _, d := range report.Deliveries {
		result := "success"
		if !d.Succeeded() {
			result = "failure"
		}
		r.deliveriesTotal.WithLabelValues(result).Inc()
	}
}

// CycleFailed records a failed cycle attempt
func (r *Recorder) CycleFailed(failure models.CycleFailure) {
	r.cyclesTotal.WithLabelValues("failure").Inc()
	r.retryAttempts.Set(float64(failure.Attempt))
}

func cycleResult(bootstrap bool) string {
	if bootstrap {
		return "bootstrap"
	}
	return "success"
}

// Serve exposes /metrics on addr until ctx is cancelled
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info().Str("address", addr).Msg("Serving metrics")
		errCh <- server.ListenAndServe()
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
		if err := server.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn().Err(err).Msg("Metrics server shutdown failed")
			return err
		}
		return nil
	}
}
