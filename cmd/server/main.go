package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/app"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/config"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", map[string]any{
			"error": err.Error(),
		})
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize app", map[string]any{
			"error": err.Error(),
		})
	}

	go func() {
		if err := application.Run(); err != nil {
			logger.Fatal("http server failed", map[string]any{
				"error": err.Error(),
			})
		}
	}()

	go func() {
		if err := application.WatchKeys(ctx); err != nil {
			logger.Error("key directory watcher stopped", map[string]any{
				"error": err.Error(),
			})
		}
	}()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	logger.Info("auth broker started", map[string]any{
		"port":   cfg.AppPort,
		"issuer": cfg.Issuer,
	})

	for running := true; running; {
		select {
		case <-hup:
			// failures are logged by the key store
			_ = application.ReloadKeys(ctx)
		case <-ctx.Done():
			running = false
		}
	}

	logger.Info("shutdown signal received", nil)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("graceful shutdown failed", map[string]any{
			"error": err.Error(),
		})
	}

	logger.Info("auth broker stopped cleanly", nil)
}
