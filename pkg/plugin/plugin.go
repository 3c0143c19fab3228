// Package plugin defines integration plugin contracts: definitions, actions,
// dispatch results, and the registry that holds them.
package plugin

import (
	"context"
)

// SendEvent is the action every built-in plugin exposes.
const SendEvent = "send_event"

// Metadata carries display information for an integration. Descriptive only,
// no runtime behavior depends on it.
type Metadata struct {
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	LogoURL     string `json:"logo_url,omitempty"`
	DocsURL     string `json:"docs_url,omitempty"`
}

// Input is the generic event envelope passed into a plugin action.
type Input struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

// Handler transforms a domain event into a provider call. Handlers never
// panic and never return a Go error for expected conditions; every outcome,
// including provider and transport failures, is reported through Result.
type Handler func(ctx context.Context, config map[string]any, input Input) Result

// Action is a named, schema-validated operation a plugin exposes.
type Action struct {
	Name        string
	Description string
	InputSchema map[string]any
	Handler     Handler
}

// Definition describes one supported integration. Definitions are registered
// at process start and immutable thereafter.
type Definition struct {
	Slug         string
	Name         string
	Metadata     Metadata
	ConfigSchema map[string]any
	Actions      map[string]Action
}
