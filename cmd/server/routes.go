package main

import (
	"github.com/gin-gonic/gin"

	"github.com/ritalabs/rita/internal/handlers"
	"github.com/ritalabs/rita/internal/middleware"
	"github.com/ritalabs/rita/internal/models"
	"github.com/ritalabs/rita/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for the inbound SMS webhook
	webhookLimiter := middleware.NewRateLimiter(10, 20)

	// Health check
	healthHandler := handlers.NewHealthHandler()
	r.GET("/health", healthHandler.CheckHealth)

	db := models.GetDB()
	customerHandler := handlers.NewCustomerHandler(db)
	questionHandler := handlers.NewQuestionHandler(svc.catalog)
	surveyHandler := handlers.NewSurveyHandler(svc.conversations, svc.customers, svc.notifications)
	webhookHandler := handlers.NewWebhookHandler(svc.conversations, svc.customers, svc.notifications)
	scheduleHandler := handlers.NewScheduleHandler(svc.scheduleService)
	reportHandler := handlers.NewReportHandler(svc.dailyReportService)
	notifyBotHandler := handlers.NewNotifyBotHandler(svc.notifications)
	systemConfigHandler := handlers.NewSystemConfigHandler(svc.configs, svc.dailyReportService)
	systemLogHandler := handlers.NewSystemLogHandler(db)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", svc.authHandler.Login)
			auth.GET("/config", svc.authHandler.GetAuthConfig)
		}

		// Inbound SMS from the carrier (public, rate limited)
		api.POST("/webhooks/sms", webhookLimiter.Middleware(), webhookHandler.HandleSMS)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Customers
			protected.GET("/customers", customerHandler.List)
			protected.GET("/customers/export", customerHandler.Export)
			protected.GET("/customers/batches", customerHandler.Batches)
			protected.GET("/customers/status-counts", customerHandler.StatusCounts)
			protected.GET("/customers/:id", customerHandler.Get)
			protected.PUT("/customers/:id/phone", customerHandler.SetPhone)
			protected.POST("/customers/import", customerHandler.Import)
			protected.POST("/customers/import-data", customerHandler.ImportData)

			// Questions (read for all users)
			protected.GET("/questions", questionHandler.List)
			protected.GET("/questions/:id", questionHandler.Get)

			// Surveys
			protected.POST("/surveys/:id/start", surveyHandler.Start)
			protected.POST("/surveys/:id/respond", surveyHandler.Respond)
			protected.GET("/surveys/stats", surveyHandler.Stats)
			protected.GET("/surveys/callbacks", surveyHandler.Callbacks)

			// Scheduled batches
			protected.GET("/schedules", scheduleHandler.List)
			protected.GET("/schedules/:id", scheduleHandler.Get)
			protected.POST("/schedules", scheduleHandler.Create)
			protected.POST("/schedules/:id/cancel", scheduleHandler.Cancel)

			// Daily digests
			protected.GET("/reports", reportHandler.List)
		}

		// Admin only routes, with request auditing
		admin := api.Group("")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(), middleware.AuditLog())
		{
			// Questions (write operations)
			admin.POST("/questions", questionHandler.Create)
			admin.PUT("/questions/reorder", questionHandler.Reorder)
			admin.PUT("/questions/:id", questionHandler.Update)
			admin.DELETE("/questions/:id", questionHandler.Delete)

			// Customers (destructive)
			admin.DELETE("/customers/:id", customerHandler.Delete)

			// Digest generation on demand
			admin.POST("/reports/generate", reportHandler.Generate)

			// Notify bots
			admin.GET("/notify-bots", notifyBotHandler.List)
			admin.POST("/notify-bots", notifyBotHandler.Create)
			admin.PUT("/notify-bots/:id", notifyBotHandler.Update)
			admin.DELETE("/notify-bots/:id", notifyBotHandler.Delete)
			admin.POST("/notify-bots/:id/test", notifyBotHandler.Test)

			// System Config
			admin.GET("/system/sending-config", systemConfigHandler.GetSendingConfig)
			admin.PUT("/system/sending-config", systemConfigHandler.UpdateSendingConfig)
			admin.GET("/system/report-config", systemConfigHandler.GetReportConfig)
			admin.PUT("/system/report-config", systemConfigHandler.UpdateReportConfig)

			// System Logs
			admin.GET("/system/logs", systemLogHandler.List)
			admin.GET("/system/logs/modules", systemLogHandler.Modules)
			admin.GET("/system/logs/retention", systemLogHandler.GetRetention)
			admin.PUT("/system/logs/retention", systemLogHandler.SetRetention)
			admin.POST("/system/logs/cleanup", systemLogHandler.Cleanup)
		}
	}
}
