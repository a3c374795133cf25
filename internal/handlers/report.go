package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ritalabs/rita/internal/services"
	"github.com/ritalabs/rita/pkg/response"
)

type ReportHandler struct {
	reports *services.DailyReportService
}

func NewReportHandler(reports *services.DailyReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// List returns recent daily digests
// GET /api/reports
func (h *ReportHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	reports, err := h.reports.List(limit)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, reports)
}

// Generate builds and pushes the digest for a given date on demand
// POST /api/reports/generate
func (h *ReportHandler) Generate(c *gin.Context) {
	var req struct {
		Date string `json:"date"` // YYYY-MM-DD, today when empty
	}
	_ = c.ShouldBindJSON(&req)

	day := time.Now()
	if req.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
		if err != nil {
			response.BadRequest(c, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	if err := h.reports.GenerateAndSend(day); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"generated": day.Format("2006-01-02")})
}
