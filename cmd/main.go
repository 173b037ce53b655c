// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Shivanand-hulikatti/group-rooming/internal/backend"
	"github.com/Shivanand-hulikatti/group-rooming/internal/config"
	"github.com/Shivanand-hulikatti/group-rooming/internal/database"
	"github.com/Shivanand-hulikatti/group-rooming/internal/handler"
	"github.com/Shivanand-hulikatti/group-rooming/internal/inventory"
	"github.com/Shivanand-hulikatti/group-rooming/internal/logging"
	"github.com/Shivanand-hulikatti/group-rooming/internal/notify"
	"github.com/Shivanand-hulikatti/group-rooming/internal/repository"
	"github.com/Shivanand-hulikatti/group-rooming/internal/service"
	"github.com/Shivanand-hulikatti/group-rooming/internal/session"
)

func main() {
	ctx := context.Background()

	// ── 1. Configuration and logging ─────────────────────────────────────
	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, "group-rooming")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// ── 2. Inventory source ──────────────────────────────────────────────
	var source inventory.Source
	switch cfg.Inventory.Source {
	case config.SourcePostgres:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer pool.Close()
		source = repository.NewPartyRepository(pool)
	case config.SourceBackend:
		source = backend.NewClient(cfg.Backend, logger)
	case config.SourceFile:
		source = inventory.NewFileSource(cfg.Inventory.File)
	}
	logger.Info("inventory source ready", zap.String("source", cfg.Inventory.Source))

	// ── 3. Change notifiers ──────────────────────────────────────────────
	notifiers := notify.Multi{notify.NewLogNotifier(logger)}
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		notifiers = append(notifiers, notify.NewStreamNotifier(rdb, cfg.Redis.Stream, 10000))
		logger.Info("publishing changes to redis stream", zap.String("stream", cfg.Redis.Stream))
	}

	// ── 4. Wire up layers ────────────────────────────────────────────────
	sessions := session.NewManager(cfg.Session.TTL, cfg.Session.Cleanup, logger)
	roomingSvc := service.NewRoomingService(source, sessions, notifiers, logger)
	roomingHandler := handler.NewRoomingHandler(roomingSvc, logger)

	// ── 5. Build the router ──────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.Logger(logger))
	r.Use(handler.CORS)
	r.Use(handler.RateLimit(handler.NewIPRateLimiter(
		rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst,
	)))

	r.Get("/health", handler.HealthCheck)
	roomingHandler.Routes(r)

	if cfg.Server.WebDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.Server.WebDir)))
	}

	// ── 6. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return
	}
	logger.Info("server stopped", zap.Int("open_sessions", sessions.Len()))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
