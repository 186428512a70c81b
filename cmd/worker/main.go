package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"productpager/internal/config"
	"productpager/internal/database"
	"productpager/internal/logger"
	"productpager/internal/worker"
	"productpager/internal/worker/processors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := logger.New(cfg.LogLevel)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	processor := processors.NewBulkActionProcessor(logger, database.NewBulkActionStore(db))
	w := worker.New(cfg, logger, processor)

	// Wait for interrupt signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting worker...")
	if err := w.Start(ctx); err != nil {
		logger.Error("Worker exited: %v", err)
	}

	logger.Info("Shutting down worker...")
	if err := w.Stop(); err != nil {
		logger.Error("Failed to close reader: %v", err)
	}
}
