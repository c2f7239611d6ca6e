// Package server exposes the resume workflow over HTTP.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"resumecoach/internal/ai"
	"resumecoach/internal/config"
	"resumecoach/internal/errors"
	"resumecoach/internal/observability"
	"resumecoach/internal/session"
	"resumecoach/internal/workflow"
)

// multipartOverhead is added to the file size limit to get the request body
// limit, leaving room for form fields and part headers.
const multipartOverhead = 1 << 20

// HealthReporter reports the state of the reasoning engine backends.
type HealthReporter interface {
	ModelInfo(ctx context.Context) map[string]*ai.ModelInfo
	CircuitBreakerStats() map[string]any
}

// Deps are the collaborators the handlers drive.
type Deps struct {
	Machine *workflow.Machine
	Store   *session.Store
	// Media transcribes audio for /transcribe. Nil disables the endpoint.
	Media ai.MediaReader
	// Health is consulted by /health. Nil reports no engine status.
	Health        HealthReporter
	Observability *observability.ObservabilityManager
}

// Server holds configuration for the HTTP server
type Server struct {
	cfg     *config.Config
	version string
	deps    Deps

	apiKeys        map[string]bool
	maxRequestSize int64
	rateLimiter    *LimiterManager
	metrics        *observability.Metrics
	tlsConfig      *tls.Config
	certificate    *certificateInfo

	logger *errors.Logger
}

// New creates a Server. It fails only when TLS is enabled and the
// certificates cannot be loaded.
func New(cfg *config.Config, version string, deps Deps, logger *errors.Logger) (*Server, error) {
	apiKeys := make(map[string]bool)
	for _, key := range cfg.Server.APIKeys {
		if key != "" {
			apiKeys[key] = true
		}
	}

	s := &Server{
		cfg:            cfg,
		version:        version,
		deps:           deps,
		apiKeys:        apiKeys,
		maxRequestSize: cfg.App.MaxFileSize + multipartOverhead,
		metrics:        deps.Observability.GetMetrics(),
		logger:         logger,
	}

	if rl := cfg.Server.RateLimit; rl.Enabled {
		s.rateLimiter = NewLimiterManager(rl.RequestsPerMin, rl.BurstCapacity, logger)
	}

	tlsConfig, cert, err := buildTLSConfig(cfg.Server.TLS)
	if err != nil {
		return nil, err
	}
	s.tlsConfig = tlsConfig
	s.certificate = cert
	if cert != nil {
		s.metrics.RecordCertExpiry(context.Background(), cert.NotAfter, cert.Subject)
	}

	return s, nil
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port)
}

// Handler returns the routed handler wrapped in the tracing middleware.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.routes()
	if om := s.deps.Observability; om != nil {
		handler = om.HTTPMiddleware()(handler)
	}
	return handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.Addr(),
		Handler:      s.Handler(),
		TLSConfig:    s.tlsConfig,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.displayServerInfo()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server",
			"address", httpServer.Addr,
			"tls_enabled", httpServer.TLSConfig != nil)

		var err error
		if httpServer.TLSConfig != nil {
			// Certificates are already in the TLS config.
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err, ok := <-serverErrors:
		s.Close()
		if !ok {
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer s.Close()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return httpServer.Close()
	}
	s.logger.Info("Server shutdown completed successfully")
	return nil
}

// Close releases the rate limiter. The session store belongs to the caller.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Close()
	}
}
