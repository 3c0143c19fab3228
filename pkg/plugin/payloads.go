package plugin

import (
	"errors"
	"fmt"
)

// LeadCreatedPayload is the narrowed shape of lead.created event data.
type LeadCreatedPayload struct {
	ID    string
	Email string
	Name  string
	Phone string
}

// SubmissionCreatedPayload is the narrowed shape of submission.created event
// data: the lead it belongs to plus the submitted form fields, which arrive
// under metadata.data.
type SubmissionCreatedPayload struct {
	Lead   LeadCreatedPayload
	Fields map[string]any
}

var errMissingEmail = errors.New("missing required field 'email'")

// ParseLeadCreated narrows untyped event data into a LeadCreatedPayload.
// Email is required and must be a non-empty string; the remaining fields are
// optional.
func ParseLeadCreated(data map[string]any) (LeadCreatedPayload, error) {
	if data == nil {
		return LeadCreatedPayload{}, errMissingEmail
	}

	email, ok := data["email"].(string)
	if !ok || email == "" {
		return LeadCreatedPayload{}, errMissingEmail
	}

	payload := LeadCreatedPayload{Email: email}
	payload.ID, _ = data["id"].(string)
	payload.Name, _ = data["name"].(string)
	payload.Phone, _ = data["phone"].(string)

	return payload, nil
}

// ParseSubmissionCreated narrows untyped event data into a
// SubmissionCreatedPayload. The nested lead record is required; metadata.data
// is optional and defaults to an empty field set.
func ParseSubmissionCreated(data map[string]any) (SubmissionCreatedPayload, error) {
	if data == nil {
		return SubmissionCreatedPayload{}, fmt.Errorf("missing required field 'lead'")
	}

	leadData, ok := data["lead"].(map[string]any)
	if !ok {
		return SubmissionCreatedPayload{}, fmt.Errorf("missing required field 'lead'")
	}

	payload := SubmissionCreatedPayload{Fields: map[string]any{}}
	payload.Lead.ID, _ = leadData["id"].(string)
	payload.Lead.Name, _ = leadData["name"].(string)
	payload.Lead.Email, _ = leadData["email"].(string)

	if metadata, ok := data["metadata"].(map[string]any); ok {
		if fields, ok := metadata["data"].(map[string]any); ok {
			payload.Fields = fields
		}
	}

	return payload, nil
}

// EnvelopeSchema is the input schema shared by every send_event action: an
// event name plus an arbitrary data object.
func EnvelopeSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"event": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"data": map[string]any{
				"type": "object",
			},
		},
		"required": []any{"event"},
	}
}
