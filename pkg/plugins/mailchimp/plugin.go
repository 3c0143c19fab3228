// Package mailchimp upserts leads into a Mailchimp audience via the Lists
// API v3.
package mailchimp

import (
	"context"
	"crypto/md5" //nolint:gosec // Mailchimp member IDs are defined as MD5 of the email.
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/hookbridge/hookbridge/pkg/dispatch"
	"github.com/hookbridge/hookbridge/pkg/events"
	"github.com/hookbridge/hookbridge/pkg/plugin"
)

const Slug = "mailchimp"

// Definition returns the Mailchimp plugin definition.
func Definition(client *dispatch.Client) *plugin.Definition {
	return &plugin.Definition{
		Slug: Slug,
		Name: "Mailchimp",
		Metadata: plugin.Metadata{
			Description: "Add new leads to a Mailchimp audience",
			Category:    "marketing",
			LogoURL:     "https://assets.hookbridge.io/integrations/mailchimp.svg",
			DocsURL:     "https://mailchimp.com/developer/marketing/api/list-members/",
		},
		ConfigSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"api_key": map[string]any{
					"type":        "string",
					"minLength":   1,
					"description": "Mailchimp API key (datacenter suffix after the dash, e.g. -us21)",
				},
				"list_id": map[string]any{
					"type":        "string",
					"minLength":   1,
					"description": "Audience (list) identifier",
				},
				"api_url": map[string]any{
					"type":        "string",
					"description": "Override for the Marketing API base URL (tests)",
				},
			},
			"required": []any{"api_key", "list_id"},
		},
		Actions: map[string]plugin.Action{
			plugin.SendEvent: {
				Name:        "Send event",
				Description: "Upsert the lead as an audience member",
				InputSchema: plugin.EnvelopeSchema(),
				Handler:     sendEvent(client),
			},
		},
	}
}

func sendEvent(client *dispatch.Client) plugin.Handler {
	return func(ctx context.Context, config map[string]any, input plugin.Input) plugin.Result {
		// Only lead.created maps to a provider call; everything else is
		// acknowledged without touching the network.
		if input.Event != events.LeadCreated {
			return plugin.Logged(input.Event)
		}

		lead, err := plugin.ParseLeadCreated(input.Data)
		if err != nil {
			return plugin.Failed(input.Event, fmt.Sprintf("Invalid payload for %s event", input.Event), err.Error())
		}

		apiKey, _ := config["api_key"].(string)
		listID, _ := config["list_id"].(string)

		baseURL, _ := config["api_url"].(string)
		if baseURL == "" {
			baseURL = fmt.Sprintf("https://%s.api.mailchimp.com/3.0", datacenter(apiKey))
		}

		url := fmt.Sprintf("%s/lists/%s/members/%s", baseURL, listID, MemberID(lead.Email))

		body := map[string]any{
			"email_address": lead.Email,
			"status_if_new": "subscribed",
			"merge_fields":  mergeFields(lead),
		}

		headers := map[string]string{
			"Authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte("anystring:"+apiKey)),
		}

		resp, err := client.PutJSON(ctx, url, headers, body)
		if err != nil {
			return plugin.Failed(input.Event, "Failed to reach Mailchimp", err.Error())
		}

		if !resp.OK() {
			return plugin.Failed(input.Event, resp.ErrorDetail("detail"), string(resp.RawBody))
		}

		// "subscribed" on the response means the member already existed and
		// was updated; any other status means the upsert created it.
		result := plugin.Created(input.Event)
		if status, ok := resp.Body["status"].(string); ok && status == "subscribed" {
			result = plugin.Updated(input.Event)
		}

		result.Contact = lead.Email

		return result
	}
}

// MemberID computes the deterministic Mailchimp member identifier: the MD5
// hex digest of the lowercased email address.
func MemberID(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(email))) //nolint:gosec

	return hex.EncodeToString(sum[:])
}

func datacenter(apiKey string) string {
	if idx := strings.LastIndex(apiKey, "-"); idx >= 0 && idx < len(apiKey)-1 {
		return apiKey[idx+1:]
	}

	return "us1"
}

func mergeFields(lead plugin.LeadCreatedPayload) map[string]any {
	fields := map[string]any{}

	if lead.Name != "" {
		fields["FNAME"] = lead.Name
	}

	if lead.Phone != "" {
		fields["PHONE"] = lead.Phone
	}

	return fields
}
