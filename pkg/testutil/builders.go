// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/hookbridge/hookbridge/pkg/events"
	"github.com/hookbridge/hookbridge/pkg/models"
)

// CreateTestInstallation creates a Slack installation with default values that
// can be overridden.
func CreateTestInstallation(overrides ...func(*models.Installation)) *models.Installation {
	now := time.Now().UTC()
	installation := &models.Installation{
		ID:             uuid.New().String(),
		OrganizationID: "org-test",
		PluginSlug:     "slack",
		Config: map[string]any{
			"webhook_url": "https://hooks.slack.com/services/T000/B000/XXX",
			"app_url":     "https://app.example.com",
		},
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, override := range overrides {
		override(installation)
	}

	return installation
}

// WithPlugin sets the plugin slug and its config.
func WithPlugin(slug string, config map[string]any) func(*models.Installation) {
	return func(i *models.Installation) {
		i.PluginSlug = slug
		i.Config = config
	}
}

// WithInstallationEvents restricts the installation to the given event names.
func WithInstallationEvents(names ...string) func(*models.Installation) {
	return func(i *models.Installation) {
		i.Events = names
	}
}

// WithInstallationActive sets the active flag.
func WithInstallationActive(active bool) func(*models.Installation) {
	return func(i *models.Installation) {
		i.Active = active
	}
}

// WithOrganization sets the owning organization.
func WithOrganization(organizationID string) func(*models.Installation) {
	return func(i *models.Installation) {
		i.OrganizationID = organizationID
	}
}

// CreateTestSubscription creates a webhook subscription with default values
// that can be overridden.
func CreateTestSubscription(overrides ...func(*models.Subscription)) *models.Subscription {
	now := time.Now().UTC()
	subscription := &models.Subscription{
		ID:             uuid.New().String(),
		OrganizationID: "org-test",
		URL:            "https://receiver.example.com/hooks",
		Secret:         "whsec_test",
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for _, override := range overrides {
		override(subscription)
	}

	return subscription
}

// WithSubscriptionURL sets the destination URL.
func WithSubscriptionURL(url string) func(*models.Subscription) {
	return func(s *models.Subscription) {
		s.URL = url
	}
}

// WithSubscriptionEvents restricts the subscription to the given event names.
func WithSubscriptionEvents(names ...string) func(*models.Subscription) {
	return func(s *models.Subscription) {
		s.Events = names
	}
}

// WithSubscriptionActive sets the active flag.
func WithSubscriptionActive(active bool) func(*models.Subscription) {
	return func(s *models.Subscription) {
		s.Active = active
	}
}

// CreateTestLeadEvent creates a lead.created event with a well-formed payload.
func CreateTestLeadEvent(overrides ...func(*events.Event)) events.Event {
	event := events.NewEvent(events.LeadCreated, "org-test", map[string]any{
		"id":    "lead-1",
		"email": "test@example.com",
		"name":  "Test Lead",
		"phone": "+15550100",
	})

	for _, override := range overrides {
		override(&event)
	}

	return event
}

// CreateTestSubmissionEvent creates a submission.created event with a lead and
// a couple of form fields.
func CreateTestSubmissionEvent(overrides ...func(*events.Event)) events.Event {
	event := events.NewEvent(events.SubmissionCreated, "org-test", map[string]any{
		"lead": map[string]any{
			"id":    "lead-1",
			"email": "test@example.com",
			"name":  "Test Lead",
		},
		"metadata": map[string]any{
			"data": map[string]any{
				"full_name": "Test Lead",
				"company":   "Acme",
			},
		},
	})

	for _, override := range overrides {
		override(&event)
	}

	return event
}

// WithEventName sets the event name.
func WithEventName(name string) func(*events.Event) {
	return func(e *events.Event) {
		e.Name = name
	}
}

// WithEventData replaces the event data.
func WithEventData(data map[string]any) func(*events.Event) {
	return func(e *events.Event) {
		e.Data = data
	}
}
