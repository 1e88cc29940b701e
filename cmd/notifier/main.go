package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/saferoute/internal/adapters/nats"
	"github.com/samirrijal/saferoute/internal/adapters/notify"
	"github.com/samirrijal/saferoute/internal/adapters/postgres"
	"github.com/samirrijal/saferoute/internal/pkg/config"
	"github.com/samirrijal/saferoute/internal/pkg/logging"
	"github.com/samirrijal/saferoute/internal/pkg/telemetry"
	"github.com/samirrijal/saferoute/internal/workflows"
)

func main() {
	cfg, err := config.Load("saferoute-notifier")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer telemetry.Flush(context.Background(), shutdown)
		}
		shutdownMeter, err := telemetry.InitMeter(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("otel meter init failed", "error", err)
		} else {
			defer telemetry.Flush(context.Background(), shutdownMeter)
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(logger),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	workflows.Register(w, &workflows.SOSActivities{
		Alerts:   postgres.NewSOSRepo(db),
		Contacts: postgres.NewContactRepo(db),
		Notifier: notify.NewLogNotifier(logger),
	})
	if err := w.Start(); err != nil {
		log.Fatalf("worker: %v", err)
	}
	defer w.Stop()

	// Every SOS event on the bus becomes one workflow execution.
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	starter := workflows.NewStarter(c, cfg.Temporal.TaskQueue, cfg.Temporal.EscalationDelay)
	if err := sub.SubscribeSOSAlerts(ctx, starter.StartSOS); err != nil {
		log.Fatalf("subscribe sos: %v", err)
	}

	slog.Info("sos notifier started",
		"task_queue", cfg.Temporal.TaskQueue,
		"escalation_delay", cfg.Temporal.EscalationDelay,
	)
	<-ctx.Done()
	slog.Info("sos notifier stopping")
}
