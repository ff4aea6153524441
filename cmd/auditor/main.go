package main

import (
	"context"
	"log"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/aldapa/trackside/internal/adapters/nats"
	"github.com/aldapa/trackside/internal/adapters/postgres"
	"github.com/aldapa/trackside/internal/core/domain"
	"github.com/aldapa/trackside/internal/core/usecases"
	"github.com/aldapa/trackside/internal/pkg/config"
	"github.com/aldapa/trackside/internal/workflows"
)

func main() {
	cfg, err := config.Load("trackside-auditor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	hazardRepo := postgres.NewHazardRepo(db)
	zoneRepo := postgres.NewZoneRepo(db)

	// NATS is optional: audits still run without a broker, they just
	// skip the publish step.
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Printf("WARNING: nats unavailable, audits will not publish alerts: %v", err)
		pub = nil
	} else {
		defer pub.Close()
	}

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	activities := &workflows.AuditActivities{
		HazardService: usecases.NewHazardService(hazardRepo, zoneRepo, nil, nil),
		Hazards:       hazardRepo,
	}
	if pub != nil {
		activities.Events = pub
	}
	w.RegisterWorkflow(workflows.RouteAuditWorkflow)
	w.RegisterActivity(activities)

	// Alert audit trail: consume published route alerts off the durable
	// stream so every alert lands in the worker log, even ones produced by
	// the API's synchronous scan path.
	if pub != nil {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			log.Printf("WARNING: alert subscriber unavailable: %v", err)
		} else {
			defer sub.Close()
			err := sub.SubscribeRouteAlerts(ctx, func(ctx context.Context, alert *domain.RouteAlert) error {
				severity := "none"
				if alert.MostSevere != nil {
					severity = string(alert.MostSevere.Category)
				}
				log.Printf("route alert: %d hazards, most severe %s, scanned %s",
					len(alert.Hazards), severity, alert.ScannedAt.Format(time.RFC3339))
				return nil
			})
			if err != nil {
				log.Printf("WARNING: alert subscription failed: %v", err)
			}
		}
	}

	log.Printf("route audit worker started on queue %s", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
