package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"visualeditor/internal/config"
	"visualeditor/internal/logging"
	mcpserver "visualeditor/internal/mcp"
	"visualeditor/internal/secret"
	"visualeditor/internal/service"
)

// ServeMCP runs the app as a standalone MCP server on stdin/stdout with no GUI.
// It initializes storage, services, and runs the MCP server until interrupted.
// Logs go to stderr; stdout carries the protocol.
func ServeMCP() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return err
	}
	level, _ := logging.ParseLevel(cfg.LogLevel)
	logger := logging.New(os.Stderr, level)
	ctx = logging.WithLogger(ctx, logger)

	// No frontend: nothing to render events and nobody to approve.
	c, err := startCore(ctx, cfg, service.NoopEmitter{}, logger, secret.NewKeychainStore(cfg.Storage.KeychainService))
	if err != nil {
		return err
	}
	defer c.close(context.WithoutCancel(ctx))

	mcpSrv := mcpserver.New(ctx, mcpserver.Deps{
		Name:    cfg.MCP.Name,
		Version: cfg.MCP.Version,
		Editors: c.editors,
		Logger:  logger.WithPrefix("mcp"),
	})

	errCh := make(chan error, 1)
	go func() { errCh <- mcpSrv.ServeStdio() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}
