package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	"github.com/hookbridge/hookbridge/pkg/dispatch"
	"github.com/hookbridge/hookbridge/pkg/eventbus"
	"github.com/hookbridge/hookbridge/pkg/events"
	"github.com/hookbridge/hookbridge/pkg/maintenance"
	"github.com/hookbridge/hookbridge/pkg/persistence"
	"github.com/hookbridge/hookbridge/pkg/plugin"
	"github.com/hookbridge/hookbridge/pkg/webhook"
)

// WorkerManagerConfig carries the tunables for a worker process.
type WorkerManagerConfig struct {
	DeliveryTimeout time.Duration
	DeliveryQueue   webhook.WorkerConfig
	PruneSchedule   string
	RecordRetention time.Duration
}

type WorkerManager struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *plugin.Registry
	eventBus    eventbus.EventBus
	publisher   message.Publisher
	subscriber  message.Subscriber
	tracer      trace.Tracer
	config      WorkerManagerConfig
}

func NewWorkerManager(
	id string,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	publisher message.Publisher,
	subscriber message.Subscriber,
	logger *slog.Logger,
	registry *plugin.Registry,
	config WorkerManagerConfig,
) *WorkerManager {
	return &WorkerManager{
		id:          id,
		logger:      logger.With("module", "hookbridge-worker", "worker_id", id),
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		publisher:   publisher,
		subscriber:  subscriber,
		config:      config,
	}
}

// WithTracer enables span export for dispatch runs.
func (w *WorkerManager) WithTracer(tracer trace.Tracer) {
	w.tracer = tracer
}

func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager", "worker_id", w.id)

	err := w.eventBus.Handle(events.EventReceivedEvent, w.handleEventReceived)
	if err != nil {
		return err
	}

	err = w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	sender := webhook.NewSender(w.config.DeliveryTimeout)

	deliveryWorker, err := webhook.NewWorker(
		w.publisher,
		w.subscriber,
		sender,
		w.persistence.Deliveries(),
		w.eventBus,
		w.logger,
		w.config.DeliveryQueue,
	)
	if err != nil {
		return err
	}

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := deliveryWorker.Run(workerCtx); err != nil {
			w.logger.ErrorContext(workerCtx, "Delivery worker stopped", "error", err)
		}
	}()

	pruner, err := maintenance.NewPruner(w.persistence, w.config.PruneSchedule, w.config.RecordRetention, w.logger)
	if err != nil {
		return err
	}

	pruner.Start()

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker...")

	pruner.Stop()
	cancel()

	if err := deliveryWorker.Close(); err != nil {
		w.logger.ErrorContext(ctx, "Failed to close delivery worker", "error", err)
	}

	return nil
}

func (w *WorkerManager) handleEventReceived(ctx context.Context, event any) error {
	receivedEvent, ok := event.(*events.EventReceived)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for EventReceived")

		return nil
	}

	logger := w.logger.With(
		"event_id", receivedEvent.Event.ID,
		"event", receivedEvent.Event.Name,
		"organization_id", receivedEvent.Event.OrganizationID,
	)
	logger.InfoContext(ctx, "Processing received event")

	installations, err := w.persistence.Installations().ListByOrganization(ctx, receivedEvent.Event.OrganizationID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list installations", "error", err)

		return err
	}

	dispatcher := dispatch.NewDispatcher(w.registry, w.eventBus, w.persistence.Dispatches(), w.logger)
	if w.tracer != nil {
		dispatcher = dispatcher.WithTracer(w.tracer)
	}

	results := dispatcher.Dispatch(ctx, installations, receivedEvent.Event)

	logger.InfoContext(ctx, "Event dispatch finished", "installations", len(results))

	return nil
}
