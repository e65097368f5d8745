// Command bootstrap applies pending migrations and seeds an empty store, then exits.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"example.com/mergington/internal/config"
	"example.com/mergington/internal/observability"
	"example.com/mergington/internal/persistence/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("open store failed", "error", err)
		os.Exit(1)
	}

	result, err := st.Initialize(ctx)
	closeErr := st.Close()
	if err != nil {
		logger.Error("initialize store failed", "error", err)
		os.Exit(1)
	}
	if closeErr != nil {
		logger.Warn("close store failed", "error", closeErr)
	}

	logger.Info("store ready",
		"store", cfg.StoreDriver,
		"applied_migrations", len(result.AppliedMigrations),
		"seeded", result.Seeded,
	)
}
