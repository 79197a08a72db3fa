package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whisky-collection/internal/app"
	"whisky-collection/internal/config"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the whisky collection HTTP server.

The server connects to the configured database, creates and seeds the
Whisky table when needed, binds the HTTP port and serves until SIGINT or
SIGTERM is received.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("version", Version).Msg("starting whiskyd")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	application := app.New(cfg, logger)
	if err := application.Start(ctx); err != nil {
		return err
	}

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var runErr error
	select {
	case err := <-application.Err():
		runErr = err

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := application.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}

	if runErr != nil {
		return fmt.Errorf("whiskyd stopped: %w", runErr)
	}
	return nil
}
