package plugin_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookbridge/hookbridge/pkg/plugin"
)

func testDefinition(slug string) *plugin.Definition {
	return &plugin.Definition{
		Slug: slug,
		Name: "Test " + slug,
		ConfigSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"webhook_url": map[string]any{
					"type":      "string",
					"minLength": 1,
				},
			},
			"required": []any{"webhook_url"},
		},
		Actions: map[string]plugin.Action{
			plugin.SendEvent: {
				Name:        "Send event",
				InputSchema: plugin.EnvelopeSchema(),
				Handler: func(_ context.Context, _ map[string]any, input plugin.Input) plugin.Result {
					return plugin.Sent(input.Event)
				},
			},
		},
	}
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	registry := plugin.NewRegistry(slog.Default())

	require.NoError(t, registry.Register(testDefinition("alpha")))

	def, err := registry.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", def.Slug)
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	t.Parallel()

	registry := plugin.NewRegistry(slog.Default())

	require.NoError(t, registry.Register(testDefinition("alpha")))

	err := registry.Register(testDefinition("alpha"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistry_RegisterInvalidDefinitions(t *testing.T) {
	t.Parallel()

	registry := plugin.NewRegistry(slog.Default())

	noSlug := testDefinition("")
	require.Error(t, registry.Register(noSlug))

	noSchema := testDefinition("beta")
	noSchema.ConfigSchema = nil
	require.Error(t, registry.Register(noSchema))
}

func TestRegistry_GetUnknown(t *testing.T) {
	t.Parallel()

	registry := plugin.NewRegistry(slog.Default())

	_, err := registry.Get("missing")
	require.ErrorIs(t, err, plugin.ErrPluginNotFound)
}

func TestRegistry_SlugsSorted(t *testing.T) {
	t.Parallel()

	registry := plugin.NewRegistry(slog.Default())

	require.NoError(t, registry.Register(testDefinition("zulu")))
	require.NoError(t, registry.Register(testDefinition("alpha")))
	require.NoError(t, registry.Register(testDefinition("mike")))

	assert.Equal(t, []string{"alpha", "mike", "zulu"}, registry.Slugs())
}

func TestRegistry_Action(t *testing.T) {
	t.Parallel()

	registry := plugin.NewRegistry(slog.Default())
	require.NoError(t, registry.Register(testDefinition("alpha")))

	action, err := registry.Action("alpha", plugin.SendEvent)
	require.NoError(t, err)
	assert.NotNil(t, action.Handler)

	_, err = registry.Action("alpha", "unknown_action")
	require.Error(t, err)

	_, err = registry.Action("missing", plugin.SendEvent)
	require.ErrorIs(t, err, plugin.ErrPluginNotFound)
}

func TestRegistry_ValidateConfig(t *testing.T) {
	t.Parallel()

	registry := plugin.NewRegistry(slog.Default())
	require.NoError(t, registry.Register(testDefinition("alpha")))

	tests := []struct {
		name    string
		config  map[string]any
		wantErr bool
	}{
		{
			name:   "valid config",
			config: map[string]any{"webhook_url": "https://example.com/hook"},
		},
		{
			name:    "missing required property",
			config:  map[string]any{},
			wantErr: true,
		},
		{
			name:    "wrong property type",
			config:  map[string]any{"webhook_url": 42},
			wantErr: true,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			err := registry.ValidateConfig("alpha", testCase.config)
			if testCase.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRegistry_ValidateInput(t *testing.T) {
	t.Parallel()

	registry := plugin.NewRegistry(slog.Default())
	require.NoError(t, registry.Register(testDefinition("alpha")))

	err := registry.ValidateInput("alpha", plugin.SendEvent, plugin.Input{
		Event: "lead.created",
		Data:  map[string]any{"email": "test@example.com"},
	})
	require.NoError(t, err)

	err = registry.ValidateInput("alpha", plugin.SendEvent, plugin.Input{Event: ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid input")
}
