package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gestion-stock/internal/alert"
	"gestion-stock/internal/config"
	"gestion-stock/internal/database"
	"gestion-stock/internal/logging"
	"gestion-stock/internal/server"
)

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel)
	database.Init(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scanner := alert.NewScanner(database.DB, cfg.ExpiryWarningDays, cfg.ExpiryScanInterval, logger)
	go scanner.Run(ctx)

	app := server.New(cfg, logger)

	go func() {
		<-ctx.Done()
		logger.Info(context.Background(), "shutting down")
		if err := app.Shutdown(); err != nil {
			logger.Error(context.Background(), "shutdown failed", "error", err)
		}
	}()

	logger.Info(ctx, "server starting", "port", cfg.HTTPPort, "driver", cfg.DatabaseDriver)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
