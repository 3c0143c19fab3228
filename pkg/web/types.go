// Package web provides the HTTP API for events, installations, and webhook
// subscriptions.
package web

import "github.com/hookbridge/hookbridge/pkg/models"

// IngestEventRequest represents the request body for emitting a domain event.
type IngestEventRequest struct {
	OrganizationID string         `json:"organization_id" validate:"required"`
	Name           string         `json:"name"            validate:"required,min=1"`
	Data           map[string]any `json:"data,omitempty"`
}

// IngestEventResponse reports what the ingest did with the event.
type IngestEventResponse struct {
	EventID          string `json:"event_id"`
	QueuedDeliveries int    `json:"queued_deliveries"`
}

// CreateInstallationRequest represents the request body for installing a plugin.
type CreateInstallationRequest struct {
	OrganizationID string         `json:"organization_id" validate:"required"`
	PluginSlug     string         `json:"plugin_slug"     validate:"required"`
	Config         map[string]any `json:"config"          validate:"required"`
	Events         []string       `json:"events,omitempty"`
}

// CreateSubscriptionRequest represents the request body for registering a
// webhook destination. The secret is generated server-side when omitted.
type CreateSubscriptionRequest struct {
	OrganizationID string   `json:"organization_id" validate:"required"`
	URL            string   `json:"url"             validate:"required,url"`
	Secret         string   `json:"secret,omitempty"`
	Events         []string `json:"events,omitempty"`
}

// PluginResponse is the public view of a plugin definition.
type PluginResponse struct {
	Slug         string         `json:"slug"`
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	Category     string         `json:"category,omitempty"`
	LogoURL      string         `json:"logo_url,omitempty"`
	DocsURL      string         `json:"docs_url,omitempty"`
	Actions      []string       `json:"actions"`
	ConfigSchema map[string]any `json:"config_schema"`
}

// SubscriptionResponse hides the signing secret from list endpoints.
type SubscriptionResponse struct {
	ID             string   `json:"id"`
	OrganizationID string   `json:"organization_id"`
	URL            string   `json:"url"`
	Events         []string `json:"events,omitempty"`
	Active         bool     `json:"active"`
}

// TransformSubscriptionResponse strips the secret from a stored subscription.
func TransformSubscriptionResponse(subscription *models.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:             subscription.ID,
		OrganizationID: subscription.OrganizationID,
		URL:            subscription.URL,
		Events:         subscription.Events,
		Active:         subscription.Active,
	}
}
