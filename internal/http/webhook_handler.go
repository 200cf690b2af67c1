package http

import (
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/Mailfleet/mailfleet/pkg/logger"
)

// WebhookHandler receives placement provider callbacks. A verified
// test-completion callback enqueues a high-priority test job so result
// ingest happens ahead of the polling sweep.
type WebhookHandler struct {
	tests  domain.PlacementTestRepository
	jobs   domain.JobEnqueuer
	secret string
	logger logger.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(tests domain.PlacementTestRepository, jobs domain.JobEnqueuer, secret string, logger logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		tests:  tests,
		jobs:   jobs,
		secret: secret,
		logger: logger,
	}
}

// RegisterRoutes registers the webhook HTTP endpoints
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	// Public endpoint for receiving events from the placement provider
	mux.Handle("/webhooks/placement", http.HandlerFunc(h.handlePlacementWebhook))
}

// handlePlacementWebhook handles incoming placement test callbacks
func (h *WebhookHandler) handlePlacementWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	webhookID := r.Header.Get("webhook-id")
	webhookTimestamp := r.Header.Get("webhook-timestamp")
	webhookSignature := r.Header.Get("webhook-signature")

	if webhookID == "" || webhookTimestamp == "" || webhookSignature == "" {
		WriteJSONError(w, "Missing required webhook headers", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to read webhook request body")
		WriteJSONError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	if err := domain.VerifyWebhookSignature(body, webhookSignature, webhookTimestamp, webhookID, h.secret); err != nil {
		h.logger.WithField("error", err.Error()).
			WithField("webhook_id", webhookID).
			Error("Rejected placement webhook")
		WriteJSONError(w, "Invalid webhook signature", http.StatusUnauthorized)
		return
	}

	testID := gjson.GetBytes(body, "test_id").String()
	if testID == "" {
		testID = gjson.GetBytes(body, "uuid").String()
	}
	if testID == "" {
		WriteJSONError(w, "Missing test id in payload", http.StatusBadRequest)
		return
	}

	test, err := h.tests.GetByID(r.Context(), testID)
	if err != nil {
		if domain.KindOf(err) == domain.ErrKindNotFound {
			// The provider can replay callbacks for tests we no longer
			// track; acknowledge so it stops retrying
			h.logger.WithField("test_id", testID).Info("Ignoring callback for unknown placement test")
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"ignored": true,
			})
			return
		}
		h.logger.WithField("error", err.Error()).
			WithField("test_id", testID).
			Error("Failed to load placement test for webhook")
		WriteJSONError(w, "Failed to process webhook", http.StatusInternalServerError)
		return
	}

	if test.IsCompleted() {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"ignored": true,
		})
		return
	}

	job := &domain.Job{
		Type:     domain.JobTypeTest,
		DomainID: test.DomainID,
		Priority: domain.PriorityHigh,
		Payload: domain.JobPayload{
			TestID: test.ID,
			Reason: "placement provider callback",
		},
	}
	if err := h.jobs.Enqueue(r.Context(), job); err != nil {
		h.logger.WithField("error", err.Error()).
			WithField("test_id", testID).
			Error("Failed to enqueue test job from webhook")
		WriteJSONError(w, "Failed to process webhook", http.StatusInternalServerError)
		return
	}

	h.logger.WithField("test_id", testID).
		WithField("domain_id", test.DomainID).
		Info("Received placement test callback")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}
