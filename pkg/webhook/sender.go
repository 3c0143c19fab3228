package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const appName = "hookbridge"

const maxResponseBody = 1024 // cap on stored response bodies

// Sender performs the outbound webhook POST. A non-2xx response or transport
// failure is returned as an error: the queue runtime treats an error as
// attempt-failed and consults its retry policy. At-least-once delivery, no
// deduplication.
type Sender struct {
	client *http.Client
}

func NewSender(timeout time.Duration) *Sender {
	return &Sender{
		client: &http.Client{Timeout: timeout},
	}
}

// Send POSTs the delivery payload to the subscription URL. The request
// carries the legacy shared-secret header plus an HMAC-SHA256 signature over
// "{timestamp}.{body}" so receivers can verify authenticity.
func (s *Sender) Send(ctx context.Context, delivery Delivery) (int, error) {
	body, err := json.Marshal(delivery.Payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, delivery.Subscription.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	timestamp := time.Now().Unix()

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-App-Name", appName)
	req.Header.Set("X-Webhook-Secret", delivery.Subscription.Secret)
	req.Header.Set("X-Event-Name", delivery.EventName)
	req.Header.Set("X-Webhook-Signature", Sign(body, delivery.Subscription.Secret, timestamp))
	req.Header.Set("X-Webhook-Timestamp", strconv.FormatInt(timestamp, 10))

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("webhook request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("webhook delivery failed with status %d: %s", resp.StatusCode, respBody)
	}

	return resp.StatusCode, nil
}
