// Package models defines the persisted entities of the dispatch and delivery
// pipeline.
package models

import (
	"slices"
	"time"
)

// Installation binds a plugin to one organization with a validated
// configuration. The config must satisfy the plugin's config schema before
// the installation is saved.
type Installation struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id"`
	PluginSlug     string         `json:"plugin_slug"`
	Config         map[string]any `json:"config"`
	Events         []string       `json:"events,omitempty"`
	Active         bool           `json:"active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Subscribed reports whether the installation wants the given event. An
// empty event list subscribes to everything.
func (i *Installation) Subscribed(eventName string) bool {
	if len(i.Events) == 0 {
		return true
	}

	return slices.Contains(i.Events, eventName)
}
