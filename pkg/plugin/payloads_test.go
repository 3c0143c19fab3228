package plugin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookbridge/hookbridge/pkg/plugin"
)

func TestParseLeadCreated(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     map[string]any
		expected plugin.LeadCreatedPayload
		wantErr  bool
	}{
		{
			name: "full payload",
			data: map[string]any{
				"id":    "lead-1",
				"email": "test@example.com",
				"name":  "Test Lead",
				"phone": "+15550100",
			},
			expected: plugin.LeadCreatedPayload{
				ID:    "lead-1",
				Email: "test@example.com",
				Name:  "Test Lead",
				Phone: "+15550100",
			},
		},
		{
			name:     "email only",
			data:     map[string]any{"email": "test@example.com"},
			expected: plugin.LeadCreatedPayload{Email: "test@example.com"},
		},
		{
			name:    "missing email",
			data:    map[string]any{"name": "Test Lead"},
			wantErr: true,
		},
		{
			name:    "empty email",
			data:    map[string]any{"email": ""},
			wantErr: true,
		},
		{
			name:    "email has wrong type",
			data:    map[string]any{"email": 42},
			wantErr: true,
		},
		{
			name:    "nil data",
			data:    nil,
			wantErr: true,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			payload, err := plugin.ParseLeadCreated(testCase.data)
			if testCase.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, testCase.expected, payload)
		})
	}
}

func TestParseSubmissionCreated(t *testing.T) {
	t.Parallel()

	t.Run("lead with form fields", func(t *testing.T) {
		t.Parallel()

		payload, err := plugin.ParseSubmissionCreated(map[string]any{
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
		require.NoError(t, err)

		assert.Equal(t, "lead-1", payload.Lead.ID)
		assert.Equal(t, "test@example.com", payload.Lead.Email)
		assert.Equal(t, map[string]any{"full_name": "Test Lead", "company": "Acme"}, payload.Fields)
	})

	t.Run("missing metadata defaults to empty fields", func(t *testing.T) {
		t.Parallel()

		payload, err := plugin.ParseSubmissionCreated(map[string]any{
			"lead": map[string]any{"email": "test@example.com"},
		})
		require.NoError(t, err)
		assert.Empty(t, payload.Fields)
	})

	t.Run("missing lead", func(t *testing.T) {
		t.Parallel()

		_, err := plugin.ParseSubmissionCreated(map[string]any{
			"metadata": map[string]any{"data": map[string]any{}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lead")
	})

	t.Run("nil data", func(t *testing.T) {
		t.Parallel()

		_, err := plugin.ParseSubmissionCreated(nil)
		require.Error(t, err)
	})
}

func TestResultConstructors(t *testing.T) {
	t.Parallel()

	sent := plugin.Sent("lead.created")
	assert.True(t, sent.Success)
	assert.Equal(t, plugin.ActionSent, sent.Action)
	assert.Empty(t, sent.Error)

	unhandled := plugin.Unhandled("custom.event")
	assert.True(t, unhandled.Success)
	assert.Equal(t, plugin.ActionUnhandled, unhandled.Action)

	failed := plugin.Failed("lead.created", "boom", map[string]any{"status": 500})
	assert.False(t, failed.Success)
	assert.Equal(t, "boom", failed.Error)
	assert.Empty(t, failed.Action)
	assert.NotNil(t, failed.Details)
}
