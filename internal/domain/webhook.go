package domain

import (
	"fmt"
	"net/http"

	svix "github.com/standard-webhooks/standard-webhooks/libraries/go"
)

// VerifyWebhookSignature validates a placement provider callback.
// The provider signs callbacks in the standard-webhooks format with
// webhook-id, webhook-timestamp and webhook-signature headers.
func VerifyWebhookSignature(payload []byte, signatureHeader, timestampHeader, idHeader, secret string) error {
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return fmt.Errorf("failed to create webhook verifier: %w", err)
	}

	// The standard-webhooks library expects canonical header names
	headers := http.Header{}
	headers.Set("Webhook-Id", idHeader)
	headers.Set("Webhook-Timestamp", timestampHeader)
	headers.Set("Webhook-Signature", signatureHeader)

	if err := wh.Verify(payload, headers); err != nil {
		return fmt.Errorf("signature validation failed: %w", err)
	}

	return nil
}
