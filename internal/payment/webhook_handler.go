package payment

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"storefront-api/internal/transport"
)

// SignatureHeader carries the gateway's HMAC over the raw webhook body.
const SignatureHeader = "X-Razorpay-Signature"

type WebhookHandler struct {
	*transport.BaseHandler
	paymentService ServiceAPI
	logger         *slog.Logger
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, paymentService ServiceAPI, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler:    baseHandler,
		paymentService: paymentService,
		logger:         logger,
	}
}

// HandleWebhook authenticates and processes a gateway event. Authenticated
// events are always acknowledged with 200 {"received": true}, even when
// they cannot be applied, so the gateway does not retry forever; only a bad
// signature or unreadable body is rejected.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" || !h.paymentService.VerifyWebhookSignature(body, signature) {
		h.logger.Warn("webhook signature verification failed",
			"remote_addr", r.RemoteAddr,
			"has_signature", signature != "")
		h.WriteError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Error("failed to parse webhook payload", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	h.logger.Info("received gateway webhook",
		"event", event.Event,
		"transaction_id", event.Payload.Payment.Entity.ID)

	if err := h.paymentService.HandleGatewayEvent(r.Context(), &event); err != nil {
		// Acknowledge anyway; the reconciler sweeps up anything missed here.
		h.logger.Error("failed to process webhook event",
			"error", err,
			"event", event.Event,
			"transaction_id", event.Payload.Payment.Entity.ID)
	}

	h.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
