package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ritalabs/rita/internal/models"
	"github.com/ritalabs/rita/internal/services"
)

// HealthHandler reports the state of the platform's subsystems.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	taskQueue := services.GetTaskQueue()
	queueMode := "sync"
	if taskQueue != nil && taskQueue.IsAsync() {
		queueMode = "async (Redis)"
	}

	var activeSurveys int64
	models.GetDB().Model(&models.Customer{}).
		Where("status = ?", models.CustomerStatusActive).
		Count(&activeSurveys)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "rita",
		"components": gin.H{
			"database":       dbStatus,
			"queue_mode":     queueMode,
			"active_surveys": activeSurveys,
		},
	})
}
