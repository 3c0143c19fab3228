package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/hookbridge/hookbridge/pkg/cmd"
	"github.com/hookbridge/hookbridge/pkg/log"
	"github.com/hookbridge/hookbridge/pkg/otelhelper"
	"github.com/hookbridge/hookbridge/pkg/webhook"
)

func main() {
	command := &cli.Command{
		Name:                  "hookbridge-worker",
		EnableShellCompletion: true,
		Usage:                 "Dispatch events to plugin installations and deliver webhooks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file://, postgres://, redis://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus provider (kafka, gochannel)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.DurationFlag{
				Name:    "provider-timeout",
				Usage:   "Per-call timeout for outbound provider HTTP requests",
				Value:   10 * time.Second,
				Sources: cli.EnvVars("PROVIDER_TIMEOUT"),
			},
			&cli.DurationFlag{
				Name:    "delivery-timeout",
				Usage:   "Per-attempt timeout for outbound webhook deliveries",
				Value:   10 * time.Second,
				Sources: cli.EnvVars("DELIVERY_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:    "prune-schedule",
				Usage:   "Cron schedule for pruning old dispatch and delivery records",
				Value:   "0 3 * * *",
				Sources: cli.EnvVars("PRUNE_SCHEDULE"),
			},
			&cli.DurationFlag{
				Name:    "record-retention",
				Usage:   "How long dispatch and delivery records are kept",
				Value:   30 * 24 * time.Hour,
				Sources: cli.EnvVars("RECORD_RETENTION"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export dispatch traces via OTLP",
				Sources: cli.EnvVars("OTEL_TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("hookbridge-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing HookBridge Worker")

			registry, _ := cmd.NewRegistry(logger, command.Duration("provider-timeout"))

			eventBus, publisher, subscriber := cmd.NewEventBus(command.String("event-bus"), "hookbridge-worker", logger)
			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			worker := NewWorkerManager(
				workerID,
				persistence,
				eventBus,
				publisher,
				subscriber,
				logger,
				registry,
				WorkerManagerConfig{
					DeliveryTimeout: command.Duration("delivery-timeout"),
					DeliveryQueue:   webhook.DefaultWorkerConfig(),
					PruneSchedule:   command.String("prune-schedule"),
					RecordRetention: command.Duration("record-retention"),
				},
			)

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "hookbridge-worker")
				if err != nil {
					logger.ErrorContext(ctx, "Failed to initialize tracing", "error", err)
				} else {
					worker.WithTracer(tracer)
				}
			}

			err := worker.Start(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start worker", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
