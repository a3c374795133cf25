package main

import (
	"github.com/ritalabs/rita/internal/config"
	"github.com/ritalabs/rita/internal/handlers"
	"github.com/ritalabs/rita/internal/models"
	"github.com/ritalabs/rita/internal/services"
	"github.com/ritalabs/rita/internal/utils"
	"github.com/ritalabs/rita/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	catalog            *services.CatalogService
	conversations      *services.ConversationService
	customers          *services.CustomerService
	notifications      *services.NotificationService
	configs            *services.SystemConfigService
	scheduleService    *services.ScheduleService
	dailyReportService *services.DailyReportService
	taskQueue          services.TaskQueue
	worker             *services.Worker
	authHandler        *handlers.AuthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	db := models.GetDB()

	services.InitSystemLogger(db)
	services.StartLogCleanupScheduler(db)

	// Core survey pipeline
	catalog := services.NewCatalogService(db)
	gateway := services.NewGateway(&cfg.Twilio)
	msgs := services.NewMessageBuilder(cfg.Business.Name)
	conversations := services.NewConversationService(db, catalog, gateway, msgs)
	customers := services.NewCustomerService(db)

	// Operational pushes and the daily digest
	configs := services.NewSystemConfigService(db)
	notifications := services.NewNotificationService(db)
	summaries := services.NewSummaryService(&cfg.Report)
	dailyReportService := services.NewDailyReportService(db, configs, notifications, summaries, cfg.Business.Name)
	dailyReportService.StartScheduler()

	// Batch dispatch: task queue feeds survey starts, the cron sweep
	// releases due batches inside the sending window.
	taskQueue := services.InitTaskQueue(cfg)
	processor := services.ProcessSurveyStart(conversations)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(processor)
	}
	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(processor)
			if err := worker.Start(); err != nil {
				logger.Errorf("Failed to start task worker: %v", err)
			}
		}
	}

	window := services.NewSendWindowService(configs)
	scheduleService := services.NewScheduleService(db, window, taskQueue)
	scheduleService.StartDispatcher()

	authHandler := handlers.NewAuthHandler(db, cfg)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		catalog:            catalog,
		conversations:      conversations,
		customers:          customers,
		notifications:      notifications,
		configs:            configs,
		scheduleService:    scheduleService,
		dailyReportService: dailyReportService,
		taskQueue:          taskQueue,
		worker:             worker,
		authHandler:        authHandler,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.scheduleService.StopDispatcher()
	s.dailyReportService.StopScheduler()
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
