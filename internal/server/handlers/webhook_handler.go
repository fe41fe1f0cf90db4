package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/fishfarm/internal/domain/models"
	service "github.com/mamadbah2/fishfarm/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/fishfarm/pkg/clients/whatsapp"
)

// businessAccountObject is the only webhook object that carries messages.
const businessAccountObject = "whatsapp_business_account"

// Webhook outcomes reported to the recorder.
const (
	WebhookIgnored = "ignored"
	WebhookHandled = "handled"
	WebhookFailed  = "failed"
)

// WebhookRecorder counts webhook callbacks by outcome.
type WebhookRecorder interface {
	ObserveWebhook(outcome string)
}

// WebhookOption customises a WebhookHandler.
type WebhookOption func(*WebhookHandler)

// WithWebhookRecorder installs a webhook outcome recorder.
func WithWebhookRecorder(r WebhookRecorder) WebhookOption {
	return func(h *WebhookHandler) { h.recorder = r }
}

// WebhookHandler exposes the WhatsApp command channel and the operator
// send endpoint.
type WebhookHandler struct {
	svc      service.MessagingService
	recorder WebhookRecorder
	logger   *zap.Logger
}

// NewWebhookHandler constructs the WhatsApp webhook handler.
func NewWebhookHandler(svc service.MessagingService, logger *zap.Logger, opts ...WebhookOption) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &WebhookHandler{svc: svc, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Verify answers Meta's subscription challenge.
func (h *WebhookHandler) Verify(c *gin.Context) {
	challenge, err := h.svc.VerifyWebhookToken(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
	)
	if err != nil {
		h.log(c).Warn("webhook verification failed", zap.Error(err), zap.String("mode", c.Query("hub.mode")))
		c.String(http.StatusForbidden, "verification failed")
		return
	}

	c.String(http.StatusOK, challenge)
}

// Receive runs the farm commands carried by a webhook callback. Callbacks
// for other objects are acknowledged and dropped. Failures after the payload
// is accepted are logged only: each message already got an error reply, and
// a non-2xx status would make Meta redeliver the batch.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.log(c).Warn("invalid webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	logger := h.log(c).With(zap.String("object", payload.Object), zap.Int("messages", countMessages(payload)))
	if payload.Object != businessAccountObject {
		logger.Debug("ignoring webhook for foreign object")
		h.observe(WebhookIgnored)
		c.Status(http.StatusOK)
		return
	}

	if err := h.svc.HandleWebhook(c.Request.Context(), payload); err != nil {
		logger.Error("webhook processed with errors", zap.Error(err))
		h.observe(WebhookFailed)
		c.Status(http.StatusOK)
		return
	}

	logger.Debug("webhook processed")
	h.observe(WebhookHandled)
	c.Status(http.StatusOK)
}

// SendMessage pushes an operator message, e.g. a manual pond report.
// Recipients Meta rejects are reported as 422 with Meta's reason.
func (h *WebhookHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log(c).Warn("invalid outbound payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "to and message are required"})
		return
	}

	to, ok := normalizeRecipient(req.To)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "fields": gin.H{"to": "must be a phone number in international format"}})
		return
	}
	req.To = to

	err := h.svc.SendOutbound(c.Request.Context(), req)
	var apiErr *whatsappclient.APIError
	switch {
	case err == nil:
		c.Status(http.StatusAccepted)
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest:
		h.log(c).Warn("whatsapp rejected outbound", zap.Error(err), zap.String("to", to), zap.Int("code", apiErr.Code))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": apiErr.Message})
	default:
		h.log(c).Error("failed sending outbound", zap.Error(err), zap.String("to", to))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
	}
}

func (h *WebhookHandler) log(c *gin.Context) *zap.Logger {
	if id := c.GetString("request_id"); id != "" {
		return h.logger.With(zap.String("request_id", id))
	}
	return h.logger
}

func (h *WebhookHandler) observe(outcome string) {
	if h.recorder != nil {
		h.recorder.ObserveWebhook(outcome)
	}
}

func countMessages(payload models.WebhookPayload) int {
	n := 0
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			n += len(change.Value.Messages)
		}
	}
	return n
}

// normalizeRecipient strips the formatting people type around a phone number
// ("+880 1700-000000") and keeps the digits WhatsApp expects.
func normalizeRecipient(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range strings.TrimPrefix(strings.TrimSpace(raw), "+") {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return "", false
		}
	}
	digits := b.String()
	if len(digits) < 8 || len(digits) > 15 {
		return "", false
	}
	return digits, true
}
