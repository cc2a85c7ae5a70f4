package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scriptorium/claimledger/internal/api"
	"github.com/scriptorium/claimledger/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only ledger query API",
	Long: `Starts an HTTP server exposing read-only ledger queries and ad-hoc
citation validation. Mutations stay with the CLI, keeping the registry
single-writer.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	reg, cleanup, err := openRegistry(ctx)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	defer cleanup()

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewRouter(reg, logger),
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
