package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qwen-gateway/internal/config"
	"qwen-gateway/internal/gateway"
	"qwen-gateway/internal/http"
	"qwen-gateway/internal/qwen"
	"qwen-gateway/internal/storage"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API runs batches of chat completion requests against Alibaba Cloud
// DashScope (Qwen) and reports one result per item.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Qwen Gateway API
//   description: |
//     Batch chat completion gateway for the Qwen model family.
//     Item failures are returned as data; a batch always completes.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	if cfg.DashScopeAPIKey == "" {
		slog.Warn("DASHSCOPE_API_KEY is not set; every item will fail with a configuration error")
	}

	deps := &http.Deps{
		CredentialsPresent: cfg.DashScopeAPIKey != "",
	}

	// A nil store keeps history recording off without a typed-nil interface.
	var store gateway.ResultStore
	if cfg.HistoryEnabled() {
		db, err := storage.New(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer func() {
			_ = db.Close()
		}()

		if err := storage.Migrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		slog.Info("Database initialized", "path", cfg.DBPath)

		repo := storage.NewResultRepo(db)
		store = repo
		deps.History = repo
		deps.HistoryPinger = repo
	} else {
		slog.Info("Execution history disabled")
	}

	client := qwen.NewClient(cfg.DashScopeEndpoint, cfg.RequestTimeout)
	creds := gateway.StaticCredentials{
		APIKey:    cfg.DashScopeAPIKey,
		APISecret: cfg.DashScopeAPISecret,
	}
	deps.Service = gateway.New(client, creds, store)

	router := http.NewRouter(deps)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.APIPort
	server := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", addr)
		slog.Debug("DashScope configuration", "endpoint", cfg.DashScopeEndpoint, "timeout", cfg.RequestTimeout)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed to start: %v", err)
		}
	case <-ctx.Done():
		slog.Info("Shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}
}
