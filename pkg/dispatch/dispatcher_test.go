package dispatch_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookbridge/hookbridge/pkg/dispatch"
	"github.com/hookbridge/hookbridge/pkg/models"
	"github.com/hookbridge/hookbridge/pkg/persistence/file"
	"github.com/hookbridge/hookbridge/pkg/plugin"
	"github.com/hookbridge/hookbridge/pkg/testutil"
)

func stubDefinition(slug string, handler plugin.Handler) *plugin.Definition {
	return &plugin.Definition{
		Slug: slug,
		Name: "Stub " + slug,
		ConfigSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"webhook_url": map[string]any{"type": "string", "minLength": 1},
			},
			"required": []any{"webhook_url"},
		},
		Actions: map[string]plugin.Action{
			plugin.SendEvent: {
				Name:        "Send event",
				InputSchema: plugin.EnvelopeSchema(),
				Handler:     handler,
			},
		},
	}
}

func newDispatcher(t *testing.T, definitions ...*plugin.Definition) (*dispatch.Dispatcher, *file.Persistence) {
	t.Helper()

	registry := plugin.NewRegistry(slog.Default())
	for _, def := range definitions {
		require.NoError(t, registry.Register(def))
	}

	store := file.NewPersistence(t.TempDir())

	return dispatch.NewDispatcher(registry, nil, store.Dispatches(), slog.Default()), store
}

func TestDispatcher_InvokesSubscribedInstallations(t *testing.T) {
	t.Parallel()

	invoked := 0

	dispatcher, store := newDispatcher(t, stubDefinition("stub", func(_ context.Context, _ map[string]any, input plugin.Input) plugin.Result {
		invoked++

		return plugin.Sent(input.Event)
	}))

	config := map[string]any{"webhook_url": "https://example.com/hook"}
	installations := []*models.Installation{
		testutil.CreateTestInstallation(testutil.WithPlugin("stub", config)),
		testutil.CreateTestInstallation(testutil.WithPlugin("stub", config), testutil.WithInstallationActive(false)),
		testutil.CreateTestInstallation(testutil.WithPlugin("stub", config), testutil.WithInstallationEvents("submission.created")),
	}

	event := testutil.CreateTestLeadEvent()

	results := dispatcher.Dispatch(context.Background(), installations, event)

	// Inactive and unsubscribed installations are skipped entirely.
	require.Len(t, results, 1)
	assert.Equal(t, 1, invoked)
	assert.True(t, results[0].Success)
	assert.Equal(t, plugin.ActionSent, results[0].Action)

	records, err := store.Dispatches().ListByOrganization(context.Background(), event.OrganizationID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "stub", records[0].PluginSlug)
	assert.Equal(t, event.ID, records[0].EventID)
	assert.True(t, records[0].Success)
}

func TestDispatcher_EmptyEventsMeansAllEvents(t *testing.T) {
	t.Parallel()

	dispatcher, _ := newDispatcher(t, stubDefinition("stub", func(_ context.Context, _ map[string]any, input plugin.Input) plugin.Result {
		return plugin.Sent(input.Event)
	}))

	installation := testutil.CreateTestInstallation(
		testutil.WithPlugin("stub", map[string]any{"webhook_url": "https://example.com/hook"}),
	)

	event := testutil.CreateTestLeadEvent(testutil.WithEventName("anything.goes"))

	results := dispatcher.Dispatch(context.Background(), []*models.Installation{installation}, event)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
}

func TestDispatcher_UnknownPluginYieldsFailedResult(t *testing.T) {
	t.Parallel()

	dispatcher, store := newDispatcher(t)

	installation := testutil.CreateTestInstallation(
		testutil.WithPlugin("ghost", map[string]any{"webhook_url": "https://example.com/hook"}),
	)

	event := testutil.CreateTestLeadEvent()

	results := dispatcher.Dispatch(context.Background(), []*models.Installation{installation}, event)

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "not registered")

	records, err := store.Dispatches().ListByOrganization(context.Background(), event.OrganizationID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Success)
}

func TestDispatcher_InvalidConfigYieldsFailedResult(t *testing.T) {
	t.Parallel()

	dispatcher, _ := newDispatcher(t, stubDefinition("stub", func(_ context.Context, _ map[string]any, input plugin.Input) plugin.Result {
		t.Fatal("handler must not run with invalid config")

		return plugin.Sent(input.Event)
	}))

	installation := testutil.CreateTestInstallation(testutil.WithPlugin("stub", map[string]any{}))

	results := dispatcher.Dispatch(context.Background(), []*models.Installation{installation}, testutil.CreateTestLeadEvent())

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "invalid config")
}

func TestDispatcher_OneFailureDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	dispatcher, _ := newDispatcher(t,
		stubDefinition("failing", func(_ context.Context, _ map[string]any, input plugin.Input) plugin.Result {
			return plugin.Failed(input.Event, "provider down", nil)
		}),
		stubDefinition("working", func(_ context.Context, _ map[string]any, input plugin.Input) plugin.Result {
			return plugin.Sent(input.Event)
		}),
	)

	config := map[string]any{"webhook_url": "https://example.com/hook"}
	installations := []*models.Installation{
		testutil.CreateTestInstallation(testutil.WithPlugin("failing", config)),
		testutil.CreateTestInstallation(testutil.WithPlugin("working", config)),
	}

	results := dispatcher.Dispatch(context.Background(), installations, testutil.CreateTestLeadEvent())

	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.Equal(t, "provider down", results[0].Error)
	assert.True(t, results[1].Success)
}
