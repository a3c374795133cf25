package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ritalabs/rita/internal/middleware"
	"github.com/ritalabs/rita/internal/services"
	"github.com/ritalabs/rita/pkg/response"
)

type ScheduleHandler struct {
	schedules *services.ScheduleService
}

func NewScheduleHandler(schedules *services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// Create schedules a future survey batch
// POST /api/schedules
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req struct {
		GroupName   string    `json:"group_name" binding:"required"`
		ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
		CustomerIDs []string  `json:"customer_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	batch, err := h.schedules.Create(req.GroupName, req.ScheduledAt, req.CustomerIDs, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, batch)
}

// List returns all batches by scheduled time
// GET /api/schedules
func (h *ScheduleHandler) List(c *gin.Context) {
	batches, err := h.schedules.List()
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, batches)
}

// Get returns one batch
// GET /api/schedules/:id
func (h *ScheduleHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid batch id")
		return
	}
	batch, err := h.schedules.Get(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, batch)
}

// Cancel aborts a batch that has not dispatched
// POST /api/schedules/:id/cancel
func (h *ScheduleHandler) Cancel(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid batch id")
		return
	}
	if err := h.schedules.Cancel(uint(id)); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"canceled": true})
}
