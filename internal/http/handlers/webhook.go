// Package handlers holds the HTTP surface: the WhatsApp webhook and the
// admin JSON API.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/smartsalon/salon-booking-bot/internal/observability/metrics"
	"github.com/smartsalon/salon-booking-bot/internal/whatsapp"
	"github.com/smartsalon/salon-booking-bot/pkg/logging"
)

var webhookTracer = otel.Tracer("salon.internal.http.webhook")

// MessageHandler processes one inbound message end to end.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg whatsapp.Message) error
}

// WebhookHandler terminates the Meta webhook: GET verification and POST
// message delivery.
type WebhookHandler struct {
	verifyToken string
	appSecret   string
	service     MessageHandler
	metrics     *metrics.BotMetrics
	logger      *logging.Logger
}

// NewWebhookHandler wires the webhook endpoints.
func NewWebhookHandler(verifyToken, appSecret string, service MessageHandler, m *metrics.BotMetrics, logger *logging.Logger) *WebhookHandler {
	if service == nil {
		panic("handlers: message handler cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		verifyToken: verifyToken,
		appSecret:   appSecret,
		service:     service,
		metrics:     m,
		logger:      logger,
	}
}

// Verify handles GET /webhook, Meta's subscription handshake.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, challenge)
		return
	}
	h.logger.Warn("webhook verification rejected", "mode", mode)
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// Receive handles POST /webhook. It acknowledges quickly so Meta does not
// retry, then processes each message in the delivery.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	ctx, span := webhookTracer.Start(r.Context(), "whatsapp.webhook.receive")
	defer span.End()
	start := time.Now()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}

	if h.appSecret != "" {
		signature := r.Header.Get("X-Hub-Signature-256")
		if !whatsapp.VerifySignature(h.appSecret, body, signature) {
			h.logger.Warn("invalid webhook signature")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	var event whatsapp.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}

	// Meta retries deliveries that are not acknowledged promptly.
	w.WriteHeader(http.StatusOK)

	msgs := whatsapp.ParseWebhookEvent(event)
	span.SetAttributes(attribute.Int("webhook.messages", len(msgs)))

	for _, msg := range msgs {
		if err := h.service.HandleMessage(ctx, msg); err != nil {
			h.logger.Error("message handling failed",
				"error", err,
				"identity", msg.From,
				"kind", string(msg.Kind),
			)
			span.RecordError(err)
		}
		h.metrics.ObserveWebhookLatency(string(msg.Kind), time.Since(start).Seconds())
	}
}
