// Package api exposes the public HTTP surface: route registration, the
// middleware chain, and the server lifecycle.
package api

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/apexview/apexview/internal/config"
	"github.com/apexview/apexview/internal/observability"
)

// Server wraps an http.Server with the service's routes and middleware.
type Server struct {
	httpServer *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	logger   *observability.Logger
	metrics  *observability.Metrics
	registry *prometheus.Registry
}

// WithServerLogger attaches a logger to the middleware chain.
func WithServerLogger(logger *observability.Logger) ServerOption {
	return func(c *serverConfig) { c.logger = logger }
}

// WithServerMetrics attaches HTTP metrics; registry, when non-nil, is served
// on /metrics.
func WithServerMetrics(metrics *observability.Metrics, registry *prometheus.Registry) ServerOption {
	return func(c *serverConfig) {
		c.metrics = metrics
		c.registry = registry
	}
}

// NewServer builds the HTTP server: handler routes plus the recovery,
// request-ID, tracing, access-log and CORS middleware.
func NewServer(cfg config.ServerConfig, handlers *Handlers, opts ...ServerOption) *Server {
	var sc serverConfig
	for _, opt := range opts {
		opt(&sc)
	}

	mux := http.NewServeMux()
	handlers.Register(mux)
	if sc.registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(sc.registry, promhttp.HandlerOpts{}))
	}

	handler := Chain(mux,
		Recovery(sc.logger),
		RequestID(),
		Tracing(),
		AccessLog(sc.logger, sc.metrics),
		CORS(cfg.CORSOrigins),
	)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Handler exposes the composed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe runs the server until it is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
