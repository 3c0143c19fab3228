// Package telegram translates domain events into Telegram Bot API messages.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hookbridge/hookbridge/pkg/dispatch"
	"github.com/hookbridge/hookbridge/pkg/events"
	"github.com/hookbridge/hookbridge/pkg/plugin"
)

const Slug = "telegram"

const apiBaseURL = "https://api.telegram.org"

// Definition returns the Telegram plugin definition.
func Definition(client *dispatch.Client) *plugin.Definition {
	return &plugin.Definition{
		Slug: Slug,
		Name: "Telegram",
		Metadata: plugin.Metadata{
			Description: "Send lead and form submission notifications to a Telegram chat",
			Category:    "notifications",
			LogoURL:     "https://assets.hookbridge.io/integrations/telegram.svg",
			DocsURL:     "https://core.telegram.org/bots/api#sendmessage",
		},
		ConfigSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"bot_token": map[string]any{
					"type":        "string",
					"minLength":   1,
					"description": "Bot token issued by @BotFather",
				},
				"chat_id": map[string]any{
					"type":        "string",
					"minLength":   1,
					"description": "Target chat identifier",
				},
				"api_url": map[string]any{
					"type":        "string",
					"description": "Override for the Bot API base URL (proxies, tests)",
				},
			},
			"required": []any{"bot_token", "chat_id"},
		},
		Actions: map[string]plugin.Action{
			plugin.SendEvent: {
				Name:        "Send event",
				Description: "Send the event as a Markdown message",
				InputSchema: plugin.EnvelopeSchema(),
				Handler:     sendEvent(client),
			},
		},
	}
}

func sendEvent(client *dispatch.Client) plugin.Handler {
	return func(ctx context.Context, config map[string]any, input plugin.Input) plugin.Result {
		botToken, _ := config["bot_token"].(string)
		chatID, _ := config["chat_id"].(string)

		baseURL, _ := config["api_url"].(string)
		if baseURL == "" {
			baseURL = apiBaseURL
		}

		var text string

		switch input.Event {
		case events.LeadCreated:
			lead, err := plugin.ParseLeadCreated(input.Data)
			if err != nil {
				return plugin.Failed(input.Event, fmt.Sprintf("Invalid payload for %s event", input.Event), err.Error())
			}

			text = leadCreatedMessage(lead)
		case events.SubmissionCreated:
			submission, err := plugin.ParseSubmissionCreated(input.Data)
			if err != nil {
				return plugin.Failed(input.Event, fmt.Sprintf("Invalid payload for %s event", input.Event), err.Error())
			}

			text = submissionCreatedMessage(submission)
		default:
			// Telegram always sends something: unmapped events fall back to a
			// generic JSON dump so the chat still sees them.
			text = fallbackMessage(input)
		}

		url := fmt.Sprintf("%s/bot%s/sendMessage", baseURL, botToken)

		resp, err := client.PostJSON(ctx, url, nil, map[string]any{
			"chat_id":    chatID,
			"text":       text,
			"parse_mode": "Markdown",
		})
		if err != nil {
			return plugin.Failed(input.Event, "Failed to reach Telegram", err.Error())
		}

		if !resp.OK() {
			return plugin.Failed(input.Event, resp.ErrorDetail("description"), string(resp.RawBody))
		}

		return plugin.Sent(input.Event)
	}
}

func leadCreatedMessage(lead plugin.LeadCreatedPayload) string {
	return fmt.Sprintf("*New lead created*\nName: %s\nEmail: %s", lead.Name, lead.Email)
}

func submissionCreatedMessage(submission plugin.SubmissionCreatedPayload) string {
	msg := "*New form submission*"
	if submission.Lead.Name != "" {
		msg += fmt.Sprintf("\nLead: %s", submission.Lead.Name)
	}

	if submission.Lead.Email != "" {
		msg += fmt.Sprintf("\nEmail: %s", submission.Lead.Email)
	}

	return msg
}

func fallbackMessage(input plugin.Input) string {
	pretty, err := json.MarshalIndent(input.Data, "", "  ")
	if err != nil {
		pretty = []byte("{}")
	}

	return fmt.Sprintf("*%s*\n```\n%s\n```\n%s", input.Event, pretty, time.Now().UTC().Format(time.RFC3339))
}
