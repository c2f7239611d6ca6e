package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"resumecoach/internal/config"
	"resumecoach/internal/errors"
	"resumecoach/internal/observability"
	"resumecoach/internal/server"
	"resumecoach/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for resume coaching sessions",
	Long: `Start an HTTP server that exposes the coaching workflow as a REST API.

Sessions live in memory under /api/v1/sessions and expire after the
configured TTL. Clients that keep their own state can use the stateless
endpoints under /api/v1/stateless instead.

Available endpoints:
- POST /api/v1/sessions and /api/v1/sessions/{id}/...: Session workflow
- POST /api/v1/stateless/{operation}: Run one operation on a client snapshot
- POST /api/v1/transcribe: Transcribe a voice answer
- GET /api/v1/templates: Resume templates
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	RunE: runServe,
}

var serveFlags struct {
	port, host                        string
	tlsMode, certFile, keyFile, caFile string
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.port, "port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveFlags.host, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&serveFlags.tlsMode, "tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().StringVar(&serveFlags.certFile, "cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().StringVar(&serveFlags.keyFile, "key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().StringVar(&serveFlags.caFile, "ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
}

// applyServeFlags copies the flags that were set over the loaded config.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	overrides := []struct {
		flag   string
		value  string
		target *string
	}{
		{"port", serveFlags.port, &cfg.Server.Port},
		{"host", serveFlags.host, &cfg.Server.Host},
		{"tls-mode", serveFlags.tlsMode, &cfg.Server.TLS.Mode},
		{"cert-file", serveFlags.certFile, &cfg.Server.TLS.CertFile},
		{"key-file", serveFlags.keyFile, &cfg.Server.TLS.KeyFile},
		{"ca-file", serveFlags.caFile, &cfg.Server.TLS.CAFile},
	}
	for _, o := range overrides {
		if cmd.Flags().Changed(o.flag) {
			*o.target = o.value
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	applyServeFlags(cmd, cfg)
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	obs, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			logger.LogError(err, "Failed to flush telemetry")
		}
	}()

	a, err := newApp(cfg, logger, obs)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.LogError(err, "Failed to release engine resources")
		}
	}()

	store := session.NewStore(session.StoreOptions{
		TTL:             cfg.Server.Sessions.TTL,
		CleanupInterval: cfg.Server.Sessions.CleanupInterval,
		MaxSessions:     cfg.Server.Sessions.MaxSessions,
	}, logger)
	defer store.Close()

	srv, err := server.New(cfg, Version, server.Deps{
		Machine:       a.machine,
		Store:         store,
		Media:         a.service.Media(),
		Health:        a.service,
		Observability: obs,
	}, logger)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error { return srv.Run(ctx) })

	watcher := config.NewPromptWatcher(cfg, time.Second, func(overrides map[string]string) {
		if err := a.composer.SetOverrides(overrides); err != nil {
			logger.LogError(err, "Rejected reloaded prompt templates, keeping the previous ones")
			return
		}
		logger.Info("Prompt templates reloaded", "templates", len(overrides))
	}, logger)
	if watcher != nil {
		g.Go(func() error { return watcher.Run(ctx) })
	}

	if handler := obs.PrometheusHandler(); handler != nil {
		runPrometheus(ctx, g, handler, observability.GetPrometheusConfig(cfg), logger)
	}

	return g.Wait()
}

// runPrometheus serves the metrics endpoint on its own port until ctx ends.
func runPrometheus(ctx context.Context, g *errgroup.Group, handler http.Handler, promCfg observability.PrometheusConfig, logger *errors.Logger) {
	promServer := observability.NewPrometheusServer(handler, promCfg.Port)

	g.Go(func() error {
		logger.Info("Starting Prometheus metrics server", "port", promCfg.Port, "endpoint", promCfg.Endpoint)
		if err := promServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("prometheus server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return promServer.Shutdown(shutdownCtx)
	})
}
