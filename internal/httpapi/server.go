// Package httpapi exposes the Bot API surface over HTTP: the /bot{token}
// method routes, a health probe, and Prometheus metrics.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/grambridge/grambridge/internal/bridge"
)

// Config holds the HTTP server tunables.
type Config struct {
	Bind            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// PollMaxTimeout caps the getUpdates long-poll wait. WriteTimeout must
	// leave headroom above it.
	PollMaxTimeout time.Duration
}

func (c *Config) defaults() {
	if c.Bind == "" {
		c.Bind = "127.0.0.1:8081"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.PollMaxTimeout == 0 {
		c.PollMaxTimeout = 50 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = c.PollMaxTimeout + 10*time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// Server is the HTTP facade over the session registry.
type Server struct {
	config   Config
	registry *bridge.Registry
	logger   *slog.Logger
	metrics  *Metrics
	server   *http.Server
}

func NewServer(cfg Config, registry *bridge.Registry, metrics *Metrics, logger *slog.Logger) *Server {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:   cfg,
		registry: registry,
		logger:   logger,
		metrics:  metrics,
	}
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)

	// Public — no token required.
	r.Get("/healthz", s.handleHealth())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/bot{token}", func(r chi.Router) {
		r.HandleFunc("/{method}", s.handleMethod)
	})

	return r
}

// Start binds the listener and serves in the background. A bind failure is
// returned synchronously.
func (s *Server) Start() error {
	mux := s.buildRouter()

	s.server = &http.Server{
		Addr:         s.config.Bind,
		Handler:      mux,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", s.config.Bind)
	if err != nil {
		return errors.New("httpapi: listen failed: " + err.Error())
	}

	go func() {
		s.logger.Info("api listening", "addr", s.config.Bind)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api serve error", "error", err)
		}
	}()

	return nil
}

// Stop drains in-flight requests within the configured timeout.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	s.logger.Info("api shutting down")
	return s.server.Shutdown(shutdownCtx)
}
