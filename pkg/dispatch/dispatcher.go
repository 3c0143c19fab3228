package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/hookbridge/hookbridge/pkg/eventbus"
	"github.com/hookbridge/hookbridge/pkg/events"
	"github.com/hookbridge/hookbridge/pkg/models"
	"github.com/hookbridge/hookbridge/pkg/otelhelper"
	"github.com/hookbridge/hookbridge/pkg/persistence"
	"github.com/hookbridge/hookbridge/pkg/plugin"
)

// Dispatcher fans a domain event out to every matching plugin installation.
// Handlers report every outcome through tagged results, so a dispatch run
// never fails because one provider did.
type Dispatcher struct {
	registry   *plugin.Registry
	eventBus   eventbus.EventPublisher
	dispatches persistence.DispatchRepository
	tracer     trace.Tracer
	logger     *slog.Logger
}

func NewDispatcher(
	registry *plugin.Registry,
	eventBus eventbus.EventPublisher,
	dispatches persistence.DispatchRepository,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		registry:   registry,
		eventBus:   eventBus,
		dispatches: dispatches,
		tracer:     noop.NewTracerProvider().Tracer("dispatch"),
		logger:     logger.With("module", "dispatcher"),
	}
}

// WithTracer replaces the no-op tracer.
func (d *Dispatcher) WithTracer(tracer trace.Tracer) *Dispatcher {
	d.tracer = tracer

	return d
}

// Dispatch runs the send_event action of every installation subscribed to
// the event and returns one tagged result per invoked installation.
func (d *Dispatcher) Dispatch(ctx context.Context, installations []*models.Installation, event events.Event) []plugin.Result {
	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "dispatch.event",
		attribute.String(otelhelper.EventIDKey, event.ID),
		attribute.String(otelhelper.EventNameKey, event.Name),
		attribute.String(otelhelper.OrganizationIDKey, event.OrganizationID),
	)
	defer span.End()

	results := make([]plugin.Result, 0, len(installations))

	for _, installation := range installations {
		if !installation.Active || !installation.Subscribed(event.Name) {
			continue
		}

		result := d.dispatchOne(ctx, installation, event)
		results = append(results, result)

		d.record(ctx, installation, event, result)
	}

	return results
}

func (d *Dispatcher) dispatchOne(ctx context.Context, installation *models.Installation, event events.Event) plugin.Result {
	logger := d.logger.With(
		"plugin", installation.PluginSlug,
		"installation_id", installation.ID,
		"event", event.Name,
	)

	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "dispatch.plugin",
		attribute.String(otelhelper.PluginSlugKey, installation.PluginSlug),
		attribute.String(otelhelper.InstallationIDKey, installation.ID),
	)
	defer span.End()

	action, err := d.registry.Action(installation.PluginSlug, plugin.SendEvent)
	if err != nil {
		otelhelper.SetError(span, err)

		return plugin.Failed(event.Name, err.Error(), nil)
	}

	// Config was validated at installation time; an invalid config here is a
	// programmer error upstream, surfaced as a failed result rather than a
	// panic so one bad installation cannot take down the worker.
	if err := d.registry.ValidateConfig(installation.PluginSlug, installation.Config); err != nil {
		otelhelper.SetError(span, err)

		return plugin.Failed(event.Name, err.Error(), nil)
	}

	input := plugin.Input{Event: event.Name, Data: event.Data}

	if err := d.registry.ValidateInput(installation.PluginSlug, plugin.SendEvent, input); err != nil {
		otelhelper.SetError(span, err)

		return plugin.Failed(event.Name, err.Error(), nil)
	}

	result := action.Handler(ctx, installation.Config, input)

	if result.Success {
		logger.InfoContext(ctx, "Plugin dispatch completed", "action", result.Action)
	} else {
		logger.WarnContext(ctx, "Plugin dispatch failed", "error", result.Error)
		otelhelper.SetError(span, errors.New(result.Error))
	}

	return result
}

func (d *Dispatcher) record(ctx context.Context, installation *models.Installation, event events.Event, result plugin.Result) {
	record := &models.DispatchRecord{
		ID:             uuid.New().String(),
		OrganizationID: installation.OrganizationID,
		EventID:        event.ID,
		EventName:      event.Name,
		PluginSlug:     installation.PluginSlug,
		InstallationID: installation.ID,
		Success:        result.Success,
		Action:         result.Action,
		Error:          result.Error,
		CreatedAt:      time.Now().UTC(),
	}

	if err := d.dispatches.Save(ctx, record); err != nil {
		d.logger.ErrorContext(ctx, "Failed to save dispatch record", "error", err)
	}

	if d.eventBus == nil {
		return
	}

	var busEvent eventbus.Event

	if result.Success {
		completed := events.DispatchCompleted{
			BaseEvent:      events.NewBaseEvent(events.DispatchCompletedEvent, installation.OrganizationID),
			EventID:        event.ID,
			EventName:      event.Name,
			PluginSlug:     installation.PluginSlug,
			InstallationID: installation.ID,
			Action:         result.Action,
		}
		busEvent = completed
	} else {
		failed := events.DispatchFailed{
			BaseEvent:      events.NewBaseEvent(events.DispatchFailedEvent, installation.OrganizationID),
			EventID:        event.ID,
			EventName:      event.Name,
			PluginSlug:     installation.PluginSlug,
			InstallationID: installation.ID,
			Error:          result.Error,
		}
		busEvent = failed
	}

	if err := d.eventBus.Publish(ctx, event.OrganizationID, busEvent); err != nil {
		d.logger.ErrorContext(ctx, "Failed to publish dispatch event", "error", err)
	}
}
