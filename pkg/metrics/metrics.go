// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline and serves the /metrics endpoint.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// JobsEnqueued counts files accepted for ingestion.
	JobsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledgerlens_ingest_jobs_enqueued_total",
		Help: "Number of statement files enqueued for processing.",
	})

	// JobsFinished counts terminal job outcomes by status.
	JobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerlens_ingest_jobs_finished_total",
		Help: "Number of ingestion jobs reaching a terminal status.",
	}, []string{"status"})

	// PipelineDuration observes end-to-end per-file pipeline latency.
	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledgerlens_ingest_pipeline_duration_seconds",
		Help:    "Wall time of one file's rasterize/OCR/LLM/parse pipeline.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	// CompletionRetries counts retried LLM completion calls.
	CompletionRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledgerlens_completion_retries_total",
		Help: "Number of retried LLM completion calls.",
	})

	// StatementsCommitted counts statements persisted from reviewed jobs.
	StatementsCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledgerlens_statements_committed_total",
		Help: "Number of statements committed to permanent storage.",
	})
)

// Server serves the Prometheus metrics endpoint on its own port.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewServer creates the metrics HTTP server.
func NewServer(port int, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start begins serving; blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("metrics server listening", slog.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}

// Shutdown stops the metrics server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
