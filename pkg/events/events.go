// Package events defines the domain event envelope and the bus event types
// published during integration dispatch and webhook delivery.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Bus topics.
const (
	// Topic carries integration dispatch lifecycle events.
	Topic = "hookbridge.events"
	// DeliveryTopic carries queued webhook delivery requests.
	DeliveryTopic = "hookbridge.webhook.deliveries"
	// PoisonTopic receives deliveries that exhausted their retries.
	PoisonTopic = "hookbridge.webhook.deliveries.poisoned"
)

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Integration dispatch lifecycle.
	EventReceivedEvent     EventType = "integration.event.received"
	DispatchCompletedEvent EventType = "integration.dispatch.completed"
	DispatchFailedEvent    EventType = "integration.dispatch.failed"

	// Webhook delivery lifecycle.
	DeliverySucceededEvent EventType = "webhook.delivery.succeeded"
	DeliveryFailedEvent    EventType = "webhook.delivery.failed"
)

// Domain event names understood by the built-in plugins. Tenants may emit
// arbitrary names; these are the ones with dedicated provider payloads.
const (
	LeadCreated       = "lead.created"
	SubmissionCreated = "submission.created"
)

// Event is the generic envelope a tenant emits: a name plus arbitrary data.
type Event struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	OrganizationID string         `json:"organization_id"`
	Timestamp      time.Time      `json:"timestamp"`
	Data           map[string]any `json:"data,omitempty"`
}

// NewEvent builds an envelope with a fresh ID and timestamp.
func NewEvent(name, organizationID string, data map[string]any) Event {
	return Event{
		ID:             uuid.New().String(),
		Name:           name,
		OrganizationID: organizationID,
		Timestamp:      time.Now().UTC(),
		Data:           data,
	}
}

type BaseEvent struct {
	ID             string         `json:"id"`
	Type           EventType      `json:"type"`
	Timestamp      time.Time      `json:"timestamp"`
	OrganizationID string         `json:"organization_id"`
	WorkerID       string         `json:"worker_id,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, organizationID string) BaseEvent {
	return BaseEvent{
		ID:             uuid.New().String(),
		Type:           eventType,
		Timestamp:      time.Now().UTC(),
		OrganizationID: organizationID,
	}
}

type EventReceived struct {
	BaseEvent

	Event Event `json:"event"`
}

func (e EventReceived) GetType() EventType {
	return EventReceivedEvent
}

type DispatchCompleted struct {
	BaseEvent

	EventID        string `json:"event_id"`
	EventName      string `json:"event_name"`
	PluginSlug     string `json:"plugin_slug"`
	InstallationID string `json:"installation_id"`
	Action         string `json:"action"`
}

func (e DispatchCompleted) GetType() EventType {
	return DispatchCompletedEvent
}

type DispatchFailed struct {
	BaseEvent

	EventID        string `json:"event_id"`
	EventName      string `json:"event_name"`
	PluginSlug     string `json:"plugin_slug"`
	InstallationID string `json:"installation_id"`
	Error          string `json:"error"`
}

func (e DispatchFailed) GetType() EventType {
	return DispatchFailedEvent
}

type DeliverySucceeded struct {
	BaseEvent

	SubscriptionID string `json:"subscription_id"`
	EventName      string `json:"event_name"`
	StatusCode     int    `json:"status_code"`
}

func (e DeliverySucceeded) GetType() EventType {
	return DeliverySucceededEvent
}

type DeliveryFailed struct {
	BaseEvent

	SubscriptionID string `json:"subscription_id"`
	EventName      string `json:"event_name"`
	Error          string `json:"error"`
}

func (e DeliveryFailed) GetType() EventType {
	return DeliveryFailedEvent
}
