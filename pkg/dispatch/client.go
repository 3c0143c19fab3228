// Package dispatch matches domain events against installed plugins and
// performs the provider HTTP calls their actions produce.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

const maxResponseBody = 64 * 1024 // cap on provider response bodies

// ProviderResponse is a normalized provider HTTP response. Body is the
// decoded JSON object, or nil when the provider returned something that is
// not a JSON object (Slack answers webhook posts with plain "ok").
type ProviderResponse struct {
	StatusCode int
	Body       map[string]any
	RawBody    []byte
}

// OK reports whether the provider answered with a 2xx status.
func (pr *ProviderResponse) OK() bool {
	return pr.StatusCode >= 200 && pr.StatusCode < 300
}

// ErrorDetail extracts a provider-supplied error message, trying the given
// body keys in order before falling back to the status text and raw body.
func (pr *ProviderResponse) ErrorDetail(keys ...string) string {
	for _, key := range keys {
		if pr.Body == nil {
			break
		}

		if detail, ok := pr.Body[key].(string); ok && detail != "" {
			return detail
		}
	}

	if len(pr.RawBody) > 0 {
		return fmt.Sprintf("%s: %s", http.StatusText(pr.StatusCode), pr.RawBody)
	}

	return http.StatusText(pr.StatusCode)
}

// Client performs JSON HTTP calls to third-party providers with an explicit
// per-call timeout, so a slow provider cannot stall the dispatch worker.
type Client struct {
	http *http.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// PostJSON sends a POST with a JSON body and normalizes the response.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, body any) (*ProviderResponse, error) {
	return c.sendJSON(ctx, http.MethodPost, url, headers, body)
}

// PutJSON sends a PUT with a JSON body and normalizes the response.
func (c *Client) PutJSON(ctx context.Context, url string, headers map[string]string, body any) (*ProviderResponse, error) {
	return c.sendJSON(ctx, http.MethodPut, url, headers, body)
}

func (c *Client) sendJSON(ctx context.Context, method, url string, headers map[string]string, body any) (*ProviderResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to provider failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}

	response := &ProviderResponse{
		StatusCode: resp.StatusCode,
		RawBody:    raw,
	}

	// Providers do not uniformly answer with JSON. A body that does not
	// decode into an object is kept raw instead of surfacing a parse error.
	var decoded map[string]any
	if json.Unmarshal(raw, &decoded) == nil {
		response.Body = decoded
	}

	return response, nil
}
