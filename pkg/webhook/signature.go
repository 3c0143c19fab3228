// Package webhook delivers signed event payloads to tenant-configured
// destinations through a retrying queue.
package webhook

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Sign computes the HMAC-SHA256 signature for a delivery payload. The signed
// content is "{timestamp}.{payload}"; the result is versioned as "v1=<hex>"
// so the scheme can evolve without breaking receivers.
func Sign(payload []byte, secret string, timestamp int64) string {
	content := fmt.Sprintf("%d.%s", timestamp, payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(content))

	return "v1=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature produced by Sign using a constant-time compare.
func Verify(payload []byte, secret string, timestamp int64, signature string) bool {
	expected := Sign(payload, secret, timestamp)

	return hmac.Equal([]byte(expected), []byte(signature))
}

// GenerateSecret creates a cryptographically random signing secret.
// Format: "whsec_" + 32 bytes hex.
func GenerateSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("webhook: failed to generate random secret: " + err.Error())
	}

	return "whsec_" + hex.EncodeToString(b)
}
