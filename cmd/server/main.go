package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"citycouncil/internal/app"
	"citycouncil/internal/catalog"
	"citycouncil/internal/config"
	"citycouncil/internal/domain"
	"citycouncil/internal/petition"
	"citycouncil/internal/store"
	"citycouncil/internal/store/migrations"
	httpTransport "citycouncil/internal/transport/http"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set up logger
	var logger *slog.Logger
	logOpts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	if cfg.Logging.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}

	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting city council server",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Driver,
	)

	ctx := context.Background()

	cat, err := loadCatalog(cfg)
	if err != nil {
		logger.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}
	if n := len(cat.PolicyIDs()); n < cfg.Game.DealSize {
		logger.Error("catalog too small for deal size", "policies", n, "dealSize", cfg.Game.DealSize)
		os.Exit(1)
	}

	roomStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open room store", "error", err)
		os.Exit(1)
	}
	defer roomStore.Close()

	// Create hub and service
	hub := app.NewHub(cat, cfg.Game.SessionIdleTimeout, logger)
	defer hub.Close()

	service := app.NewService(app.ServiceDeps{
		Store:     roomStore,
		Catalog:   cat,
		Approver:  petition.NewLengthApprover(cfg.Game.PetitionMinLength),
		Publisher: hub,
		Rand:      app.NewTimeSeededRand(),
		Settings: domain.Settings{
			Capacity: cfg.Game.RoomCapacity,
			MaxTurns: cfg.Game.MaxTurns,
			DealSize: cfg.Game.DealSize,
		},
		RoomCodeLength: cfg.Game.RoomCodeLength,
		Logger:         logger,
	})

	// Create HTTP server
	server := httpTransport.NewServer(cfg, service, hub, logger)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Game.CatalogDir != "" {
		return catalog.Load(os.DirFS(cfg.Game.CatalogDir))
	}
	return catalog.Default()
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.RoomStore, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		if err := migrations.Up(ctx, cfg.Storage.DatabaseURL); err != nil {
			return nil, err
		}
		logger.Info("migrations applied")
		return store.NewPostgresStore(ctx, cfg.Storage.DatabaseURL, cfg.Game.LockTimeout)
	default:
		return store.NewMemoryStore(cfg.Game.LockTimeout), nil
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
