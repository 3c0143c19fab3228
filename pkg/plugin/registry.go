package plugin

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrPluginNotFound is returned when a slug has no registered definition.
var ErrPluginNotFound = fmt.Errorf("plugin not registered")

// Registry maps plugin slugs to their definitions. Populated once at startup
// and read-only afterwards, so lookups need no synchronization.
type Registry struct {
	logger      *slog.Logger
	definitions map[string]*Definition
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:      logger.With("module", "plugin_registry"),
		definitions: make(map[string]*Definition),
	}
}

func (r *Registry) Register(def *Definition) error {
	if def.Slug == "" {
		return fmt.Errorf("plugin definition has no slug")
	}

	if _, exists := r.definitions[def.Slug]; exists {
		return fmt.Errorf("plugin '%s' already registered", def.Slug)
	}

	if def.ConfigSchema == nil {
		return fmt.Errorf("plugin '%s' has no config schema", def.Slug)
	}

	r.definitions[def.Slug] = def
	r.logger.Info("Registered plugin", "slug", def.Slug, "actions", len(def.Actions))

	return nil
}

func (r *Registry) Get(slug string) (*Definition, error) {
	def, ok := r.definitions[slug]
	if !ok {
		return nil, fmt.Errorf("plugin '%s': %w", slug, ErrPluginNotFound)
	}

	return def, nil
}

// Slugs returns all registered plugin slugs in lexical order.
func (r *Registry) Slugs() []string {
	slugs := make([]string, 0, len(r.definitions))
	for slug := range r.definitions {
		slugs = append(slugs, slug)
	}

	sort.Strings(slugs)

	return slugs
}

// Action resolves a named action on a plugin.
func (r *Registry) Action(slug, name string) (Action, error) {
	def, err := r.Get(slug)
	if err != nil {
		return Action{}, err
	}

	action, ok := def.Actions[name]
	if !ok {
		return Action{}, fmt.Errorf("plugin '%s' has no action '%s'", slug, name)
	}

	return action, nil
}

// ValidateConfig checks an installation configuration against the plugin's
// config schema. Validation is pure: the same input always yields the same
// outcome.
func (r *Registry) ValidateConfig(slug string, config map[string]any) error {
	def, err := r.Get(slug)
	if err != nil {
		return err
	}

	return validateAgainst(def.ConfigSchema, config, "config")
}

// ValidateInput checks an event envelope against an action's input schema.
func (r *Registry) ValidateInput(slug, actionName string, input Input) error {
	action, err := r.Action(slug, actionName)
	if err != nil {
		return err
	}

	if action.InputSchema == nil {
		return nil
	}

	doc := map[string]any{"event": input.Event}
	if input.Data != nil {
		doc["data"] = input.Data
	}

	return validateAgainst(action.InputSchema, doc, "input")
}

func validateAgainst(schema map[string]any, document any, subject string) error {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	documentLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("%s schema validation failed: %w", subject, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("invalid %s: %s", subject, strings.Join(details, "; "))
	}

	return nil
}
