package models

import (
	"slices"
	"time"
)

// Subscription is a tenant-configured webhook destination: a URL, its
// signing secret, and the event names it wants delivered.
type Subscription struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	URL            string    `json:"url"`
	Secret         string    `json:"secret"`
	Events         []string  `json:"events,omitempty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Subscribed reports whether the subscription wants the given event. An
// empty event list subscribes to everything.
func (s *Subscription) Subscribed(eventName string) bool {
	if len(s.Events) == 0 {
		return true
	}

	return slices.Contains(s.Events, eventName)
}
