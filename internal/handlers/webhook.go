package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ritalabs/rita/internal/services"
	"github.com/ritalabs/rita/pkg/logger"
)

// WebhookHandler receives inbound SMS callbacks from Twilio.
type WebhookHandler struct {
	conversations *services.ConversationService
	customers     *services.CustomerService
	notifications *services.NotificationService
}

func NewWebhookHandler(conversations *services.ConversationService, customers *services.CustomerService, notifications *services.NotificationService) *WebhookHandler {
	return &WebhookHandler{
		conversations: conversations,
		customers:     customers,
		notifications: notifications,
	}
}

// HandleSMS processes one inbound message
// POST /api/webhooks/sms
//
// Twilio posts form-encoded From/Body/MessageSid. The sender is resolved
// to a customer by exact phone match; an unmatched or inactive sender is a
// transport-level no-op answered 200 so the carrier stops retrying.
func (h *WebhookHandler) HandleSMS(c *gin.Context) {
	from := c.PostForm("From")
	body := c.PostForm("Body")
	messageSID := c.PostForm("MessageSid")

	if from == "" {
		c.String(http.StatusBadRequest, "missing From")
		return
	}

	customer, ok := h.conversations.ResolveActiveByPhone(from)
	if !ok {
		logger.Debug().Str("from", from).Str("sid", messageSID).Msg("inbound sms with no active survey")
		c.String(http.StatusOK, "OK")
		return
	}

	result, err := h.conversations.HandleInbound(c.Request.Context(), customer.ID, body)
	if err != nil && result == nil {
		logger.Error().Err(err).Str("customer_id", customer.ID).Msg("inbound sms processing failed")
		// Still 200: the carrier cannot fix this by redelivering.
		c.String(http.StatusOK, "OK")
		return
	}

	if result != nil && result.Outcome == services.OutcomeCompleted {
		if fresh, err := h.customers.Get(customer.ID); err == nil && fresh.ManagerCallbackRequested {
			go h.notifications.SendCallbackAlert(fresh)
		}
	}

	c.String(http.StatusOK, "OK")
}
