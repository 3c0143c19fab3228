package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"

	"github.com/hookbridge/hookbridge/pkg/eventbus"
	"github.com/hookbridge/hookbridge/pkg/events"
	"github.com/hookbridge/hookbridge/pkg/models"
	"github.com/hookbridge/hookbridge/pkg/persistence"
)

// Queue enqueues deliveries onto the delivery topic.
type Queue struct {
	publisher message.Publisher
	logger    *slog.Logger
}

func NewQueue(publisher message.Publisher, logger *slog.Logger) *Queue {
	return &Queue{
		publisher: publisher,
		logger:    logger.With("module", "webhook_queue"),
	}
}

func (q *Queue) Enqueue(ctx context.Context, delivery Delivery) error {
	payload, err := json.Marshal(delivery)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewULID(), payload)
	msg.Metadata.Set(events.EventMetadataKey, delivery.Subscription.ID)

	q.logger.InfoContext(ctx, "Enqueueing webhook delivery",
		"delivery_id", delivery.ID,
		"subscription_id", delivery.Subscription.ID,
		"event", delivery.EventName,
	)

	return q.publisher.Publish(events.DeliveryTopic, msg)
}

// WorkerConfig bounds the queue's retry policy.
type WorkerConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultWorkerConfig is the deployment default: bounded exponential backoff.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		MaxRetries:      5,
		InitialInterval: 2 * time.Second,
		MaxInterval:     2 * time.Minute,
	}
}

// Worker consumes the delivery topic and performs the outbound POSTs. A
// handler error triggers the retry middleware; deliveries that exhaust their
// retries are published to the poison topic.
type Worker struct {
	router     *message.Router
	sender     *Sender
	deliveries persistence.DeliveryRepository
	eventBus   eventbus.EventPublisher
	logger     *slog.Logger
}

func NewWorker(
	publisher message.Publisher,
	subscriber message.Subscriber,
	sender *Sender,
	deliveries persistence.DeliveryRepository,
	eventBus eventbus.EventPublisher,
	logger *slog.Logger,
	config WorkerConfig,
) (*Worker, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, err
	}

	worker := &Worker{
		router:     router,
		sender:     sender,
		deliveries: deliveries,
		eventBus:   eventBus,
		logger:     logger.With("module", "webhook_worker"),
	}

	poison, err := middleware.PoisonQueue(publisher, events.PoisonTopic)
	if err != nil {
		return nil, err
	}

	retry := middleware.Retry{
		MaxRetries:      config.MaxRetries,
		InitialInterval: config.InitialInterval,
		MaxInterval:     config.MaxInterval,
		Multiplier:      2,
		Logger:          wmLogger,
	}

	// Poison sits outside retry: only deliveries that exhausted the backoff
	// schedule end up on the poison topic.
	router.AddMiddleware(middleware.Recoverer, poison, retry.Middleware)

	router.AddNoPublisherHandler(
		"webhook_delivery",
		events.DeliveryTopic,
		subscriber,
		worker.handle,
	)

	return worker, nil
}

// Run blocks consuming deliveries until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	return w.router.Run(ctx)
}

func (w *Worker) Close() error {
	return w.router.Close()
}

// handle processes one queued delivery; the returned error is the retry
// signal for the middleware chain.
func (w *Worker) handle(msg *message.Message) error {
	ctx := msg.Context()

	var delivery Delivery
	if err := json.Unmarshal(msg.Payload, &delivery); err != nil {
		// A payload that cannot decode will never succeed; the error keeps
		// failing through the retry schedule until the poison queue takes it.
		w.logger.ErrorContext(ctx, "Failed to decode delivery payload", "error", err)

		return err
	}

	logger := w.logger.With(
		"delivery_id", delivery.ID,
		"subscription_id", delivery.Subscription.ID,
		"event", delivery.EventName,
	)

	statusCode, err := w.sender.Send(ctx, delivery)

	w.record(ctx, delivery, statusCode, err)

	if err != nil {
		logger.WarnContext(ctx, "Webhook delivery attempt failed", "status", statusCode, "error", err)

		return err
	}

	logger.InfoContext(ctx, "Webhook delivered", "status", statusCode)

	return nil
}

func (w *Worker) record(ctx context.Context, delivery Delivery, statusCode int, sendErr error) {
	record := &models.DeliveryRecord{
		ID:             uuid.New().String(),
		OrganizationID: delivery.Subscription.OrganizationID,
		SubscriptionID: delivery.Subscription.ID,
		EventName:      delivery.EventName,
		StatusCode:     statusCode,
		Success:        sendErr == nil,
		CreatedAt:      time.Now().UTC(),
	}

	var busEvent eventbus.Event

	if sendErr != nil {
		record.Error = sendErr.Error()
		busEvent = events.DeliveryFailed{
			BaseEvent:      events.NewBaseEvent(events.DeliveryFailedEvent, delivery.Subscription.OrganizationID),
			SubscriptionID: delivery.Subscription.ID,
			EventName:      delivery.EventName,
			Error:          sendErr.Error(),
		}
	} else {
		busEvent = events.DeliverySucceeded{
			BaseEvent:      events.NewBaseEvent(events.DeliverySucceededEvent, delivery.Subscription.OrganizationID),
			SubscriptionID: delivery.Subscription.ID,
			EventName:      delivery.EventName,
			StatusCode:     statusCode,
		}
	}

	if err := w.deliveries.Save(ctx, record); err != nil {
		w.logger.ErrorContext(ctx, "Failed to save delivery record", "error", err)
	}

	if w.eventBus != nil {
		if err := w.eventBus.Publish(ctx, delivery.Subscription.OrganizationID, busEvent); err != nil {
			w.logger.ErrorContext(ctx, "Failed to publish delivery event", "error", err)
		}
	}
}
