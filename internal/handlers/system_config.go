package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ritalabs/rita/internal/services"
	"github.com/ritalabs/rita/pkg/response"
)

type SystemConfigHandler struct {
	configs *services.SystemConfigService
	reports *services.DailyReportService
}

func NewSystemConfigHandler(configs *services.SystemConfigService, reports *services.DailyReportService) *SystemConfigHandler {
	return &SystemConfigHandler{configs: configs, reports: reports}
}

// GetSendingConfig returns the outbound sending window settings
// GET /api/system/sending-config
func (h *SystemConfigHandler) GetSendingConfig(c *gin.Context) {
	response.Success(c, h.configs.GetSendingConfig())
}

// UpdateSendingConfig edits the sending window
// PUT /api/system/sending-config
func (h *SystemConfigHandler) UpdateSendingConfig(c *gin.Context) {
	var req services.UpdateSendingConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.configs.UpdateSendingConfig(&req); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, h.configs.GetSendingConfig())
}

// GetReportConfig returns the daily digest schedule
// GET /api/system/report-config
func (h *SystemConfigHandler) GetReportConfig(c *gin.Context) {
	response.Success(c, gin.H{
		"enabled": h.configs.GetWithDefault("daily_report_enabled", "false") == "true",
		"time":    h.configs.GetWithDefault("daily_report_time", "18:00"),
	})
}

// UpdateReportConfig edits the digest schedule and reschedules the cron
// PUT /api/system/report-config
func (h *SystemConfigHandler) UpdateReportConfig(c *gin.Context) {
	var req struct {
		Enabled *bool   `json:"enabled"`
		Time    *string `json:"time"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if req.Enabled != nil {
		value := "false"
		if *req.Enabled {
			value = "true"
		}
		if err := h.configs.Set("daily_report_enabled", value); err != nil {
			respondError(c, err)
			return
		}
	}
	if req.Time != nil {
		if err := h.configs.Set("daily_report_time", *req.Time); err != nil {
			respondError(c, err)
			return
		}
	}
	h.reports.RescheduleFromConfig()
	h.GetReportConfig(c)
}
