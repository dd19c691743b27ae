// Package observability provides Prometheus metrics for the plauder
// gateway client.
package observability

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

// Outcome labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

var (
	// ProviderRequestsTotal counts requests issued through a transport.
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plauder_provider_requests_total",
			Help: "Provider requests",
		},
		[]string{"transport", "model", "status"},
	)

	// ProviderLatency records time to response headers (generic) or to
	// session creation (native), in seconds.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plauder_provider_latency_seconds",
			Help:    "Provider latency",
			Buckets: LLMBuckets,
		},
		[]string{"transport", "model"},
	)

	// StreamDeltasTotal counts content deltas delivered to consumers.
	StreamDeltasTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plauder_stream_deltas_total",
			Help: "Streamed content deltas",
		},
		[]string{"transport"},
	)

	// MalformedFramesTotal counts SSE lines discarded because their
	// payload was not valid JSON.
	MalformedFramesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plauder_malformed_frames_total",
			Help: "Discarded malformed stream frames",
		},
	)

	// TranslationsTotal counts translation attempts by path and outcome.
	TranslationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plauder_translations_total",
			Help: "Translation attempts",
		},
		[]string{"path", "outcome"},
	)

	// StreamsActive tracks streams currently being iterated.
	StreamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "plauder_streams_active",
			Help: "Active streams",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ProviderRequestsTotal,
		ProviderLatency,
		StreamDeltasTotal,
		MalformedFramesTotal,
		TranslationsTotal,
		StreamsActive,
	)
}

// ObserveRequest records one provider request that started at start.
func ObserveRequest(transport, model string, start time.Time, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	ProviderRequestsTotal.WithLabelValues(transport, model, status).Inc()
	ProviderLatency.WithLabelValues(transport, model).Observe(time.Since(start).Seconds())
}

// Handler returns the HTTP handler exposing the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("metrics endpoint starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
