// Package slack translates domain events into Slack Block Kit messages
// posted to an incoming webhook.
package slack

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hookbridge/hookbridge/pkg/dispatch"
	"github.com/hookbridge/hookbridge/pkg/events"
	"github.com/hookbridge/hookbridge/pkg/plugin"
)

const Slug = "slack"

const defaultAppURL = "https://app.hookbridge.io"

// Definition returns the Slack plugin definition.
func Definition(client *dispatch.Client) *plugin.Definition {
	return &plugin.Definition{
		Slug: Slug,
		Name: "Slack",
		Metadata: plugin.Metadata{
			Description: "Post lead and form submission notifications to a Slack channel",
			Category:    "notifications",
			LogoURL:     "https://assets.hookbridge.io/integrations/slack.svg",
			DocsURL:     "https://api.slack.com/messaging/webhooks",
		},
		ConfigSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"webhook_url": map[string]any{
					"type":        "string",
					"format":      "uri",
					"minLength":   1,
					"description": "Slack incoming webhook URL",
				},
				"app_url": map[string]any{
					"type":        "string",
					"description": "Base URL used to build links back to the dashboard",
				},
			},
			"required": []any{"webhook_url"},
		},
		Actions: map[string]plugin.Action{
			plugin.SendEvent: {
				Name:        "Send event",
				Description: "Post the event as a Block Kit message",
				InputSchema: plugin.EnvelopeSchema(),
				Handler:     sendEvent(client),
			},
		},
	}
}

func sendEvent(client *dispatch.Client) plugin.Handler {
	return func(ctx context.Context, config map[string]any, input plugin.Input) plugin.Result {
		webhookURL, _ := config["webhook_url"].(string)

		appURL, _ := config["app_url"].(string)
		if appURL == "" {
			appURL = defaultAppURL
		}

		var blocks []map[string]any

		switch input.Event {
		case events.LeadCreated:
			lead, err := plugin.ParseLeadCreated(input.Data)
			if err != nil {
				return plugin.Failed(input.Event, fmt.Sprintf("Invalid payload for %s event", input.Event), err.Error())
			}

			blocks = leadCreatedBlocks(appURL, lead)
		case events.SubmissionCreated:
			submission, err := plugin.ParseSubmissionCreated(input.Data)
			if err != nil {
				return plugin.Failed(input.Event, fmt.Sprintf("Invalid payload for %s event", input.Event), err.Error())
			}

			blocks = submissionCreatedBlocks(appURL, submission)
		default:
			return plugin.Unhandled(input.Event)
		}

		resp, err := client.PostJSON(ctx, webhookURL, nil, map[string]any{"blocks": blocks})
		if err != nil {
			return plugin.Failed(input.Event, "Failed to reach Slack", err.Error())
		}

		if !resp.OK() {
			return plugin.Failed(input.Event, resp.ErrorDetail("error"), string(resp.RawBody))
		}

		return plugin.Sent(input.Event)
	}
}

func leadCreatedBlocks(appURL string, lead plugin.LeadCreatedPayload) []map[string]any {
	return []map[string]any{
		header(fmt.Sprintf("*<%s|New lead created>*", leadLink(appURL, lead.ID))),
		{
			"type": "section",
			"fields": []map[string]any{
				field("Name", lead.Name),
				field("Email", lead.Email),
			},
		},
	}
}

func submissionCreatedBlocks(appURL string, submission plugin.SubmissionCreatedPayload) []map[string]any {
	lines := make([]string, 0, len(submission.Fields))

	// Sorted for a stable message layout.
	keys := make([]string, 0, len(submission.Fields))
	for key := range submission.Fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("*%s:* %v", TitleCase(key), submission.Fields[key]))
	}

	blocks := []map[string]any{
		header(fmt.Sprintf("*<%s|New form submission>*", leadLink(appURL, submission.Lead.ID))),
	}

	if len(lines) > 0 {
		blocks = append(blocks, header(strings.Join(lines, "\n")))
	}

	return blocks
}

func header(text string) map[string]any {
	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": text,
		},
	}
}

func field(label, value string) map[string]any {
	return map[string]any{
		"type": "mrkdwn",
		"text": fmt.Sprintf("*%s:*\n%s", label, value),
	}
}

func leadLink(appURL, leadID string) string {
	return fmt.Sprintf("%s/leads/%s", strings.TrimSuffix(appURL, "/"), leadID)
}

// TitleCase converts a snake_case field key into a human label:
// underscores become spaces and each word is capitalized.
func TitleCase(key string) string {
	words := strings.Split(key, "_")
	for i, word := range words {
		if word == "" {
			continue
		}

		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}

	return strings.Join(words, " ")
}
