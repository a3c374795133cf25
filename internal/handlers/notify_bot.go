package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ritalabs/rita/internal/services"
	"github.com/ritalabs/rita/pkg/response"
)

type NotifyBotHandler struct {
	notifications *services.NotificationService
}

func NewNotifyBotHandler(notifications *services.NotificationService) *NotifyBotHandler {
	return &NotifyBotHandler{notifications: notifications}
}

// List returns all configured bots
// GET /api/notify-bots
func (h *NotifyBotHandler) List(c *gin.Context) {
	bots, err := h.notifications.ListBots()
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, bots)
}

// Create registers a new bot webhook
// POST /api/notify-bots
func (h *NotifyBotHandler) Create(c *gin.Context) {
	var in services.NotifyBotInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	bot, err := h.notifications.CreateBot(&in)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, bot)
}

// Update edits a bot
// PUT /api/notify-bots/:id
func (h *NotifyBotHandler) Update(c *gin.Context) {
	id, err := parseBotID(c)
	if err != nil {
		response.BadRequest(c, "invalid bot id")
		return
	}
	var in services.NotifyBotInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	bot, err := h.notifications.UpdateBot(id, &in)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, bot)
}

// Delete removes a bot
// DELETE /api/notify-bots/:id
func (h *NotifyBotHandler) Delete(c *gin.Context) {
	id, err := parseBotID(c)
	if err != nil {
		response.BadRequest(c, "invalid bot id")
		return
	}
	if err := h.notifications.DeleteBot(id); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// Test sends a test message through a bot's webhook
// POST /api/notify-bots/:id/test
func (h *NotifyBotHandler) Test(c *gin.Context) {
	id, err := parseBotID(c)
	if err != nil {
		response.BadRequest(c, "invalid bot id")
		return
	}
	if err := h.notifications.TestBot(id); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"sent": true})
}

func parseBotID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id), err
}
