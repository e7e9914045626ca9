package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"poma/internal/archive"
	"poma/internal/event"
	"poma/internal/lock"
	"poma/internal/platform/config"
	"poma/internal/platform/httpserver"
	"poma/internal/platform/logger"
	"poma/internal/platform/postgres"
	platformredis "poma/internal/platform/redis"
	"poma/internal/ratelimit"
	"poma/internal/registry"
	"poma/internal/store/durable"
	"poma/internal/store/ephemeral"
	httptransport "poma/internal/transport/http"
	"poma/internal/workflow"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx := context.Background()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	db, err := postgres.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	eph := ephemeral.NewRedisStore(redisClient.Client)
	dur := durable.NewPostgresStore(db)
	if err := dur.EnsureSchema(ctx); err != nil {
		log.Error("schema setup failed", "error", err)
		os.Exit(1)
	}

	handler := httptransport.New(
		lock.NewManager(eph),
		ratelimit.NewLimiter(eph),
		event.NewPublisher(eph, dur, event.WithLogger(log)),
		registry.New(dur, log),
		workflow.New(dur, log),
		archive.New(dur),
		eph,
		dur,
		log,
		httptransport.Config{
			DefaultLockTTL:    cfg.DefaultLockTTL,
			DefaultRateWindow: cfg.DefaultRateWindow,
			Version:           config.Version,
		},
	)
	router := httptransport.NewRouter(handler)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting poma server", "addr", cfg.Addr, "version", config.Version)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
