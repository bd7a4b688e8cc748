package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/polywatch/service/metrics"
	"github.com/brojonat/polywatch/service/watcher"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusReader exposes wallet status snapshots. *watcher.Registry satisfies it.
type StatusReader interface {
	List() []watcher.WalletStatus
	Get(address string) (watcher.WalletStatus, bool)
}

// Server is the read-only HTTP surface of the notifier: health, metrics,
// wallet status and the live activity stream.
type Server struct {
	addr         string
	status       StatusReader
	ssePublisher *SSEPublisher
	metrics      *metrics.Metrics
	logger       *slog.Logger
	server       *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The ssePublisher is optional - if nil, SSE endpoints won't be available.
// The metrics is optional - if nil, the metrics endpoint won't be available.
func New(addr string, status StatusReader, ssePublisher *SSEPublisher, m *metrics.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		addr:         addr,
		status:       status,
		ssePublisher: ssePublisher,
		metrics:      m,
		logger:       logger,
	}
	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: SSE responses stay open indefinitely.
		IdleTimeout: 60 * time.Second,
	}
	return s
}

// Handler builds the routed handler. Every route is instrumented.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	route := func(pattern, name string, h http.Handler) {
		mux.Handle(pattern, metrics.HTTPMetricsMiddleware(s.metrics, name)(h))
	}

	route("GET /api/v1/wallets", "/api/v1/wallets", handleListWallets(s.status, s.logger))
	route("GET /api/v1/wallets/{address}", "/api/v1/wallets/{address}", handleGetWallet(s.status, s.logger))

	// SSE streaming endpoints (if SSE publisher is configured)
	if s.ssePublisher != nil {
		route("GET /api/v1/stream/activity/{address}", "/api/v1/stream/activity/{address}", handleStreamActivity(s.ssePublisher, s.metrics, s.logger))
		route("GET /api/v1/stream/activity", "/api/v1/stream/activity", handleStreamActivity(s.ssePublisher, s.metrics, s.logger))
	}

	route("GET /health", "/health", handleHealth())

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	return corsMiddleware(mux)
}

// Start starts the HTTP server and blocks until it is shut down.
func (s *Server) Start() error {
	if s.ssePublisher != nil {
		s.logger.Info("SSE streaming endpoints enabled")
	} else {
		s.logger.Warn("SSE publisher not configured, streaming endpoints disabled")
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	// Close SSE publisher first (disconnects all clients)
	if s.ssePublisher != nil {
		s.ssePublisher.Close()
	}

	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
