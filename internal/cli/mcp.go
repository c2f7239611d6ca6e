package cli

import (
	"context"
	stderrors "errors"
	"os"

	"github.com/spf13/cobra"

	"resumecoach/internal/mcp"
	"resumecoach/internal/session"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the coaching workflow as MCP tools over stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout so an assistant can
drive coaching sessions: create a session, submit a resume, work through the
weaknesses in a guided chat or build a resume by interview, and write the
final PDF to disk.

Logs go to stderr since stdout carries the protocol.`,
	Annotations: map[string]string{"logToStderr": "true"},
	RunE:        runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	a, err := newApp(cfg, logger, nil)
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

	s := mcp.NewServer(mcp.Deps{Machine: a.machine, Store: store, Logger: logger}, Version)

	logger.Info("MCP server listening on stdio", "version", Version)
	err = mcp.ServeStdio(cmd.Context(), s, os.Stdin, os.Stdout)
	if err != nil && !stderrors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
