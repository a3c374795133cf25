package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ritalabs/rita/internal/services"
	"github.com/ritalabs/rita/pkg/response"
)

type SurveyHandler struct {
	conversations *services.ConversationService
	customers     *services.CustomerService
	notifications *services.NotificationService
}

func NewSurveyHandler(conversations *services.ConversationService, customers *services.CustomerService, notifications *services.NotificationService) *SurveyHandler {
	return &SurveyHandler{
		conversations: conversations,
		customers:     customers,
		notifications: notifications,
	}
}

// Start kicks off a customer's survey
// POST /api/surveys/:id/start
func (h *SurveyHandler) Start(c *gin.Context) {
	result, err := h.conversations.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		// A delivery failure still carries the applied state transition.
		if result != nil {
			response.Success(c, gin.H{"result": result, "delivery_failed": true})
			return
		}
		respondError(c, err)
		return
	}
	response.Success(c, result)
}

// Respond simulates an inbound reply for a customer, used by the dashboard
// test console
// POST /api/surveys/:id/respond
func (h *SurveyHandler) Respond(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	customerID := c.Param("id")
	result, err := h.conversations.HandleInbound(c.Request.Context(), customerID, req.Text)
	if err != nil && result == nil {
		respondError(c, err)
		return
	}

	h.alertOnCallback(customerID, result)
	response.Success(c, result)
}

// Stats returns the analytics snapshot over the full customer set
// GET /api/surveys/stats
func (h *SurveyHandler) Stats(c *gin.Context) {
	customers, err := h.customers.All()
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, services.BuildStats(customers))
}

// Callbacks lists customers waiting on a manager call
// GET /api/surveys/callbacks
func (h *SurveyHandler) Callbacks(c *gin.Context) {
	customers, err := h.customers.ManagerCallbacks()
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, customers)
}

func (h *SurveyHandler) alertOnCallback(customerID string, result *services.InboundResult) {
	if result == nil || result.Outcome != services.OutcomeCompleted {
		return
	}
	customer, err := h.customers.Get(customerID)
	if err != nil || !customer.ManagerCallbackRequested {
		return
	}
	go h.notifications.SendCallbackAlert(customer)
}
