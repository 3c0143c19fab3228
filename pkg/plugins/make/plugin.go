// Package make forwards domain events to a Make.com workflow webhook.
package make

import (
	"context"
	"log/slog"
	"time"

	"github.com/hookbridge/hookbridge/pkg/dispatch"
	"github.com/hookbridge/hookbridge/pkg/plugin"
)

const Slug = "make"

const redactedKeyPrefixLen = 8

// Definition returns the Make plugin definition.
func Definition(client *dispatch.Client) *plugin.Definition {
	return &plugin.Definition{
		Slug: Slug,
		Name: "Make",
		Metadata: plugin.Metadata{
			Description: "Forward every event to a Make.com scenario webhook",
			Category:    "automation",
			LogoURL:     "https://assets.hookbridge.io/integrations/make.svg",
			DocsURL:     "https://www.make.com/en/help/tools/webhooks",
		},
		ConfigSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"webhook_url": map[string]any{
					"type":        "string",
					"format":      "uri",
					"minLength":   1,
					"description": "Make scenario webhook URL",
				},
				"api_key": map[string]any{
					"type":        "string",
					"minLength":   1,
					"description": "Key sent in the Authorization header",
				},
				"environment": map[string]any{
					"type":        "string",
					"description": "Environment tag included in the envelope metadata",
				},
			},
			"required": []any{"webhook_url", "api_key"},
		},
		Actions: map[string]plugin.Action{
			plugin.SendEvent: {
				Name:        "Send event",
				Description: "Forward the raw event envelope",
				InputSchema: plugin.EnvelopeSchema(),
				Handler:     sendEvent(client),
			},
		},
	}
}

func sendEvent(client *dispatch.Client) plugin.Handler {
	return func(ctx context.Context, config map[string]any, input plugin.Input) plugin.Result {
		webhookURL, _ := config["webhook_url"].(string)
		apiKey, _ := config["api_key"].(string)

		environment, _ := config["environment"].(string)
		if environment == "" {
			environment = "production"
		}

		// Every event is forwarded, recognized or not; Make scenarios do
		// their own routing on the event name.
		envelope := map[string]any{
			"event": input.Event,
			"data":  input.Data,
			"metadata": map[string]any{
				"timestamp":   time.Now().UTC().Format(time.RFC3339),
				"source":      "hookbridge",
				"environment": environment,
			},
		}

		// The full key travels only in the Authorization header; logs get
		// the redacted form.
		slog.Default().Debug("Forwarding event to Make",
			"event", input.Event,
			"api_key", RedactKey(apiKey),
		)

		headers := map[string]string{"Authorization": "Bearer " + apiKey}

		resp, err := client.PostJSON(ctx, webhookURL, headers, envelope)
		if err != nil {
			return plugin.Failed(input.Event, "Failed to reach Make", err.Error())
		}

		if !resp.OK() {
			return plugin.Failed(input.Event, resp.ErrorDetail("message"), string(resp.RawBody))
		}

		return plugin.Sent(input.Event)
	}
}

// RedactKey keeps the first 8 characters of an API key and replaces the rest
// with an ellipsis. Short keys are fully redacted.
func RedactKey(apiKey string) string {
	if len(apiKey) <= redactedKeyPrefixLen {
		return "…"
	}

	return apiKey[:redactedKeyPrefixLen] + "…"
}
