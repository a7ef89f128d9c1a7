package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/nereamendi/stormwatch/internal/adapters/http"
	natsadapter "github.com/nereamendi/stormwatch/internal/adapters/nats"
	"github.com/nereamendi/stormwatch/internal/adapters/postgres"
	"github.com/nereamendi/stormwatch/internal/adapters/valkey"
	"github.com/nereamendi/stormwatch/internal/core/ports"
	"github.com/nereamendi/stormwatch/internal/core/usecases"
	"github.com/nereamendi/stormwatch/internal/pkg/config"
	"github.com/nereamendi/stormwatch/internal/pkg/logging"
	"github.com/nereamendi/stormwatch/internal/pkg/metrics"
	"github.com/nereamendi/stormwatch/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("stormwatch-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns))
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	// NATS
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
		publisher = nil
	} else {
		defer publisher.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Repos
	routeRepo := postgres.NewRouteRepo(db)
	advisoryRepo := postgres.NewAdvisoryRepo(db)
	warningRepo := postgres.NewWarningRepo(db)
	feedRepo := postgres.NewFeedStateRepo(db)

	// Wrap optional adapters so a down cache or broker degrades to nil
	// instead of a typed-nil interface.
	var cacheSvc ports.CacheService
	if cache != nil {
		cacheSvc = cache
	}
	var eventPub ports.EventPublisher
	if publisher != nil {
		eventPub = publisher
	}

	// Use cases
	routeSvc := usecases.NewRouteService(routeRepo, cacheSvc)
	advisorySvc := usecases.NewAdvisoryService(advisoryRepo, feedRepo, eventPub)
	scanSvc := usecases.NewScanService(routeRepo, advisoryRepo, warningRepo, eventPub, cacheSvc)
	warningSvc := usecases.NewWarningService(warningRepo)

	deps := &http.Dependencies{
		Routes:     routeSvc,
		Advisories: advisorySvc,
		Scans:      scanSvc,
		Warnings:   warningSvc,
		NATS:       natsConn,
		DB:         db,
		Cache:      cache,
	}

	// Periodic DB pool gauges
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    4 * 1024 * 1024, // advisory GeoJSON payloads can be large
		AppName:      "StormWatch API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.stormwatch.app",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
