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

	"readinglog/internal/config"
	"readinglog/internal/database"
	"readinglog/internal/handlers"
	"readinglog/internal/repository"
	"readinglog/internal/security"
	"readinglog/internal/service"
	"readinglog/internal/sink"
	"readinglog/internal/storage"
)

const (
	stepDatabase   = "Connecting to database"
	stepMigrations = "Running migrations"
	stepSeed       = "Seeding defaults"
	stepStorage    = "Preparing font storage"
	stepSinks      = "Connecting external sinks"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(cfg.NewLogger(os.Stderr))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startup := handlers.NewStartup(stepDatabase, stepMigrations, stepSeed, stepStorage, stepSinks)

	// Listen before initialization so health checks see progress on /readyz
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      startup,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", "http://localhost"+addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	db, limiter, err := initialize(ctx, cfg, startup)
	if err != nil {
		slog.Error("startup failed", "error", err)
		shutdown(server)
		os.Exit(1)
	}
	defer db.Close()
	defer limiter.Stop()

	select {
	case <-ctx.Done():
		slog.Info("server shutting down")
	case err := <-serverErr:
		slog.Error("server failed", "error", err)
	}
	shutdown(server)
}

// initialize runs every startup step and swaps the real routes in once they
// all succeed.
func initialize(ctx context.Context, cfg *config.Config, startup *handlers.Startup) (*database.DB, *security.RateLimiter, error) {
	proxies, err := security.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, nil, err
	}

	startup.Begin(stepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("database connection established", "type", db.Dialect.Name())
	startup.Complete(stepDatabase)

	startup.Begin(stepMigrations)
	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	startup.Complete(stepMigrations)

	childRepo := repository.NewChildRepository(db)
	listRepo := repository.NewListRepository(db)
	fontRepo := repository.NewFontRepository(db)
	recordRepo := repository.NewRecordRepository(db)

	startup.Begin(stepStorage)
	store, err := storage.NewFromConfig(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	startup.Complete(stepStorage)

	listService := service.NewListService(listRepo, cfg.UploadDir)
	fontService := service.NewFontService(fontRepo, store)

	startup.Begin(stepSeed)
	if cfg.SeedDefaults {
		if err := listService.SeedDefaults(); err != nil {
			slog.Warn("failed to seed default word lists", "error", err)
		}
		if err := fontService.SeedDefaults(); err != nil {
			slog.Warn("failed to seed default fonts", "error", err)
		}
	}
	startup.Complete(stepSeed)

	startup.Begin(stepSinks)
	notifier, err := sink.NewFromConfig(ctx, cfg)
	if err != nil {
		// Mirrors are optional; a bad credential must not keep the app down
		slog.Warn("external sinks disabled", "error", err)
		notifier = sink.Nop{}
	}
	startup.Complete(stepSinks)

	authService, err := service.NewAuthService(cfg.AppPassword, cfg.AdminPassword, cfg.SessionSecret, cfg.SessionDuration)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if !authService.Enabled() {
		slog.Warn("APP_PASSWORD not set, the API is open to anyone who can reach it")
	}

	limiter := security.NewRateLimiter(10, time.Minute).WithTrustedProxies(proxies)

	h := &handlers.Handlers{
		Middleware: handlers.NewMiddleware(authService, limiter),
		Auth:       handlers.NewAuthHandler(authService),
		Child:      handlers.NewChildHandler(service.NewChildService(childRepo)),
		List:       handlers.NewListHandler(listService, cfg.UploadMaxSize),
		Font:       handlers.NewFontHandler(fontService, cfg.UploadMaxSize),
		Record:     handlers.NewRecordHandler(service.NewRecordService(recordRepo, childRepo, listRepo, fontRepo, notifier)),
		Admin:      handlers.NewAdminHandler(authService, listService, service.NewBackupService(db)),
		FontFiles:  handlers.FontFileHandler(store),
	}
	startup.MarkReady(h.Routes())
	slog.Info("server ready")

	return db, limiter, nil
}

func shutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
