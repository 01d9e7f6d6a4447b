package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"awsmcp/pkg/logging"
)

// runServeMode starts the MCP server and the optional REST bridge, then
// blocks until shutdown.
func runServeMode(ctx context.Context, services *Services) error {
	if err := services.Server.Start(ctx); err != nil {
		logging.Error("Serve", err, "Failed to start MCP server")
		return err
	}

	if services.REST != nil {
		if err := services.REST.Start(); err != nil {
			logging.Error("Serve", err, "Failed to start REST bridge")
			_ = services.Server.Stop(context.Background())
			return err
		}
	}

	if endpoint := services.Server.Endpoint(); endpoint != "" {
		logging.Info("Serve", "MCP endpoint: %s", endpoint)
	}
	logging.Info("Serve", "Server started. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case <-ctx.Done():
		logging.Debug("Serve", "Context done")
	case sig := <-sigChan:
		logging.Info("Serve", "Received %s", sig)
	case err := <-services.Server.Errors():
		// nil means the stdio input closed
		runErr = err
	}

	logging.Info("Serve", "--- Shutting down ---")
	if services.REST != nil {
		if err := services.REST.Stop(); err != nil {
			logging.Warn("Serve", "REST bridge shutdown: %v", err)
		}
	}
	if err := services.Server.Stop(context.Background()); err != nil {
		logging.Warn("Serve", "MCP server shutdown: %v", err)
	}

	return runErr
}
