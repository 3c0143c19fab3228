package webhook

import (
	"github.com/google/uuid"

	"github.com/hookbridge/hookbridge/pkg/models"
)

// Delivery is one queued unit of webhook work: a subscription, the event
// payload, and advisory retry metadata. Retries is informational only; the
// queue middleware owns the actual retry policy and never decrements it.
type Delivery struct {
	ID           string              `json:"id"`
	Subscription models.Subscription `json:"subscription"`
	EventName    string              `json:"event_name"`
	Payload      map[string]any      `json:"payload"`
	Retries      int                 `json:"retries"`
}

// NewDelivery builds a delivery with a fresh ID.
func NewDelivery(subscription models.Subscription, eventName string, payload map[string]any) Delivery {
	return Delivery{
		ID:           uuid.New().String(),
		Subscription: subscription,
		EventName:    eventName,
		Payload:      payload,
	}
}
