package models

import "time"

// DispatchRecord is the stored outcome of one plugin dispatch.
type DispatchRecord struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	EventID        string    `json:"event_id"`
	EventName      string    `json:"event_name"`
	PluginSlug     string    `json:"plugin_slug"`
	InstallationID string    `json:"installation_id"`
	Success        bool      `json:"success"`
	Action         string    `json:"action,omitempty"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// DeliveryRecord is the stored outcome of one webhook delivery attempt.
type DeliveryRecord struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	SubscriptionID string    `json:"subscription_id"`
	EventName      string    `json:"event_name"`
	StatusCode     int       `json:"status_code,omitempty"`
	Success        bool      `json:"success"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
