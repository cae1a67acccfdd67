package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gatewaylabs/llmproxy/internal/config"
	"github.com/gatewaylabs/llmproxy/internal/credentials"
	"github.com/gatewaylabs/llmproxy/internal/provider"
	"github.com/gatewaylabs/llmproxy/internal/proxy"
	"github.com/gatewaylabs/llmproxy/internal/server"
	"github.com/gatewaylabs/llmproxy/internal/storage"
	"github.com/gatewaylabs/llmproxy/internal/storage/sqlite"
	"github.com/gatewaylabs/llmproxy/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdown, err := telemetry.InitTracer("llmproxy", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var usage storage.UsageStore
	if cfg.Storage.Path != "" {
		store, err := sqlite.New(cfg.Storage.Path)
		if err != nil {
			log.Fatalf("Failed to open usage store: %v", err)
		}
		defer store.Close()
		usage = store
	}

	resolver := credentials.NewResolver(credentials.Bundle{
		APIKey:   cfg.Defaults.APIKey,
		Provider: cfg.Defaults.Provider,
		Model:    cfg.Defaults.Model,
		BaseURL:  cfg.Defaults.BaseURL,
	})
	forwarder := provider.NewForwarder(provider.NewRegistry())
	handler := proxy.NewHandler(resolver, forwarder, usage, logger)

	srv := server.New(cfg.Server.Port, logger)
	srv.Router.Post("/v1/chat/completions", handler.HandleChatCompletion)
	srv.Router.Get("/v1/usage", handler.HandleListUsage)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	case sig := <-sigChan:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Drain in-flight requests before exiting.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("shutdown complete")
	}
}
