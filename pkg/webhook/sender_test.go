package webhook_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookbridge/hookbridge/pkg/testutil"
	"github.com/hookbridge/hookbridge/pkg/webhook"
)

func TestSender_Send(t *testing.T) {
	t.Parallel()

	var (
		body    []byte
		headers http.Header
	)

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var err error

		body, err = io.ReadAll(request.Body)
		require.NoError(t, err)

		headers = request.Header.Clone()

		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	subscription := testutil.CreateTestSubscription(testutil.WithSubscriptionURL(server.URL))
	delivery := webhook.NewDelivery(*subscription, "lead.created", map[string]any{
		"event": "lead.created",
		"data":  map[string]any{"email": "test@example.com"},
	})

	sender := webhook.NewSender(5 * time.Second)

	statusCode, err := sender.Send(context.Background(), delivery)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, statusCode)

	assert.Equal(t, "application/json", headers.Get("Content-Type"))
	assert.Equal(t, "hookbridge", headers.Get("X-App-Name"))
	assert.Equal(t, subscription.Secret, headers.Get("X-Webhook-Secret"))
	assert.Equal(t, "lead.created", headers.Get("X-Event-Name"))

	// The signature must verify against the exact bytes that were sent.
	timestamp, err := strconv.ParseInt(headers.Get("X-Webhook-Timestamp"), 10, 64)
	require.NoError(t, err)
	assert.True(t, webhook.Verify(body, subscription.Secret, timestamp, headers.Get("X-Webhook-Signature")))

	var payload map[string]any

	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "lead.created", payload["event"])
}

func TestSender_NonSuccessStatusIsError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusInternalServerError)
		_, _ = writer.Write([]byte("receiver exploded"))
	}))
	defer server.Close()

	subscription := testutil.CreateTestSubscription(testutil.WithSubscriptionURL(server.URL))
	delivery := webhook.NewDelivery(*subscription, "lead.created", map[string]any{"event": "lead.created"})

	sender := webhook.NewSender(5 * time.Second)

	statusCode, err := sender.Send(context.Background(), delivery)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, statusCode)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "receiver exploded")
}

func TestSender_Unreachable(t *testing.T) {
	t.Parallel()

	subscription := testutil.CreateTestSubscription(testutil.WithSubscriptionURL("http://127.0.0.1:1/hooks"))
	delivery := webhook.NewDelivery(*subscription, "lead.created", map[string]any{"event": "lead.created"})

	sender := webhook.NewSender(time.Second)

	statusCode, err := sender.Send(context.Background(), delivery)
	require.Error(t, err)
	assert.Equal(t, 0, statusCode)
}
