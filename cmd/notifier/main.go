package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/nereamendi/stormwatch/internal/adapters/nats"
	"github.com/nereamendi/stormwatch/internal/adapters/postgres"
	"github.com/nereamendi/stormwatch/internal/core/domain"
	"github.com/nereamendi/stormwatch/internal/core/usecases"
	"github.com/nereamendi/stormwatch/internal/pkg/config"
	"github.com/nereamendi/stormwatch/internal/pkg/logging"
	"github.com/nereamendi/stormwatch/internal/workflows"
)

func main() {
	cfg, err := config.Load("stormwatch-notifier")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	logger := logging.ForService("notifier")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database for route and warning lookups in activities
	db, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns))
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	routeRepo := postgres.NewRouteRepo(db)
	warningRepo := postgres.NewWarningRepo(db)

	activities := &workflows.WarningActivities{
		Warnings: usecases.NewWarningService(warningRepo),
		Routes:   usecases.NewRouteService(routeRepo, nil),
		// Notifier stays nil until a delivery channel is configured;
		// DeliverWarning logs instead.
	}

	// Publisher so rescans can emit warning events back onto the stream
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer publisher.Close()

	scanSvc := usecases.NewScanService(routeRepo, postgres.NewAdvisoryRepo(db), warningRepo, publisher, nil)

	// Warning events from the scan service
	subscriber, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer subscriber.Close()

	// Changed advisory geometry means every stored route needs a fresh
	// scan; crossings found here flow out as warning events and re-enter
	// below for delivery.
	err = subscriber.SubscribeAdvisoryUpdates(ctx, func(ctx context.Context, advisory *domain.Advisory) error {
		issued, err := scanSvc.RescanAll(ctx)
		if err != nil {
			logger.Error("rescan after advisory update", "advisory_id", advisory.ID, "error", err)
			return err
		}
		logger.Info("routes rescanned",
			"advisory_id", advisory.ID, "storm_id", advisory.StormID, "warnings_issued", issued)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe advisory updates: %v", err)
	}

	if cfg.Temporal.Enabled {
		runWithTemporal(ctx, cfg, logger, subscriber, activities)
	} else {
		runDirect(ctx, logger, subscriber, activities)
	}
}

// runWithTemporal starts a worker on the notification task queue and
// launches one WarningWorkflow per warning event.
func runWithTemporal(ctx context.Context, cfg *config.Config, logger *slog.Logger, subscriber *natsadapter.Subscriber, activities *workflows.WarningActivities) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.WarningWorkflow)
	w.RegisterActivity(activities)

	err = subscriber.SubscribeWarnings(ctx, func(ctx context.Context, warning *domain.Warning) error {
		opts := client.StartWorkflowOptions{
			ID:        "warning-" + warning.ID,
			TaskQueue: cfg.Temporal.TaskQueue,
		}
		input := workflows.WarningInput{
			WarningID: warning.ID,
			RouteID:   warning.RouteID,
			StormID:   warning.StormID,
			Kind:      string(warning.Kind),
			PointLat:  warning.Point.Lat,
			PointLon:  warning.Point.Lon,
		}
		_, err := c.ExecuteWorkflow(ctx, opts, workflows.WarningWorkflow, input)
		if err != nil {
			logger.Error("start warning workflow", "warning_id", warning.ID, "error", err)
			return err
		}
		logger.Info("warning workflow started", "warning_id", warning.ID, "route_id", warning.RouteID)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe warnings: %v", err)
	}

	logger.Info("notifier worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

// runDirect delivers warnings inline without Temporal. Delivery gets
// NATS redelivery (MaxDeliver) instead of workflow retries, and no
// saga rollback.
func runDirect(ctx context.Context, logger *slog.Logger, subscriber *natsadapter.Subscriber, activities *workflows.WarningActivities) {
	err := subscriber.SubscribeWarnings(ctx, func(ctx context.Context, warning *domain.Warning) error {
		contact, err := activities.ResolveOperatorContact(ctx, warning.RouteID)
		if err != nil {
			logger.Error("resolve contact", "warning_id", warning.ID, "error", err)
			return err
		}
		if err := activities.DeliverWarning(ctx, contact, warning.ID); err != nil {
			logger.Error("deliver warning", "warning_id", warning.ID, "error", err)
			return err
		}
		logger.Info("warning delivered", "warning_id", warning.ID, "contact", contact)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe warnings: %v", err)
	}

	logger.Info("notifier started (direct delivery, temporal disabled)")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutting down notifier", "signal", sig.String())
}
