package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/ritalabs/rita/internal/models"
	"github.com/ritalabs/rita/pkg/logger"
)

// NotificationService pushes operational messages to IM webhooks: the
// daily survey digest and instant alerts when a customer asks for a
// manager callback.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// DigestNotification is the rendered content of one daily digest push.
type DigestNotification struct {
	Date             string
	BusinessName     string
	SurveysStarted   int
	SurveysCompleted int
	OptOuts          int
	AverageRating    float64
	CompanyNPS       int
	ManagerCallbacks int
	TopStoreLines    []string
	Summary          string
}

// SendDailyDigest fans the digest out to every active bot with daily
// reports enabled. Per-bot failures are collected, not fatal.
func (s *NotificationService) SendDailyDigest(n *DigestNotification) error {
	var bots []models.NotifyBot
	err := s.db.Where("is_active = ? AND daily_report_enabled = ?", true, true).Find(&bots).Error
	if err != nil {
		return err
	}
	if len(bots) == 0 {
		logger.Info().Msg("[Notification] No bots subscribed to the daily digest")
		return nil
	}

	var failures []string
	for i := range bots {
		bot := &bots[i]
		adapter := getAdapter(bot.Type)
		if err := adapter.SendDigest(bot, n); err != nil {
			logger.Error().Err(err).Str("bot", bot.Name).Msg("daily digest push failed")
			failures = append(failures, fmt.Sprintf("%s: %v", bot.Name, err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("digest delivery failed for %d bot(s): %s", len(failures), strings.Join(failures, "; "))
	}
	return nil
}

// SendCallbackAlert notifies subscribed bots the moment a completed survey
// requests a manager call.
func (s *NotificationService) SendCallbackAlert(c *models.Customer) {
	var bots []models.NotifyBot
	err := s.db.Where("is_active = ? AND callback_alert_enabled = ?", true, true).Find(&bots).Error
	if err != nil || len(bots) == 0 {
		return
	}

	topic := c.CallbackTopic
	if topic == "" {
		topic = "general feedback"
	}
	message := fmt.Sprintf("Manager callback requested\nCustomer: %s %s (%s)\nStore: %s\nTopic: %s",
		c.FirstName, c.LastName, c.PhoneNumber, c.StoreLocation, topic)

	for i := range bots {
		bot := &bots[i]
		if err := getAdapter(bot.Type).SendText(bot, message); err != nil {
			logger.Error().Err(err).Str("bot", bot.Name).Msg("callback alert push failed")
		}
	}
}

// Bot CRUD for the admin UI.

type NotifyBotInput struct {
	Name                 string `json:"name" binding:"required"`
	Type                 string `json:"type" binding:"required"`
	Webhook              string `json:"webhook" binding:"required"`
	Secret               string `json:"secret"`
	IsActive             *bool  `json:"is_active"`
	DailyReportEnabled   *bool  `json:"daily_report_enabled"`
	CallbackAlertEnabled *bool  `json:"callback_alert_enabled"`
}

func (s *NotificationService) ListBots() ([]models.NotifyBot, error) {
	var bots []models.NotifyBot
	err := s.db.Order("created_at ASC").Find(&bots).Error
	return bots, err
}

func (s *NotificationService) CreateBot(in *NotifyBotInput) (*models.NotifyBot, error) {
	bot := &models.NotifyBot{
		Name:     in.Name,
		Type:     in.Type,
		Webhook:  in.Webhook,
		Secret:   in.Secret,
		IsActive: true,
	}
	if in.IsActive != nil {
		bot.IsActive = *in.IsActive
	}
	if in.DailyReportEnabled != nil {
		bot.DailyReportEnabled = *in.DailyReportEnabled
	}
	if in.CallbackAlertEnabled != nil {
		bot.CallbackAlertEnabled = *in.CallbackAlertEnabled
	}
	if err := s.db.Create(bot).Error; err != nil {
		return nil, err
	}
	return bot, nil
}

func (s *NotificationService) UpdateBot(id uint, in *NotifyBotInput) (*models.NotifyBot, error) {
	var bot models.NotifyBot
	if err := s.db.First(&bot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "notify bot", ID: strconv.FormatUint(uint64(id), 10)}
		}
		return nil, err
	}

	bot.Name = in.Name
	bot.Type = in.Type
	bot.Webhook = in.Webhook
	if in.Secret != "" {
		bot.Secret = in.Secret
	}
	if in.IsActive != nil {
		bot.IsActive = *in.IsActive
	}
	if in.DailyReportEnabled != nil {
		bot.DailyReportEnabled = *in.DailyReportEnabled
	}
	if in.CallbackAlertEnabled != nil {
		bot.CallbackAlertEnabled = *in.CallbackAlertEnabled
	}
	if err := s.db.Save(&bot).Error; err != nil {
		return nil, err
	}
	return &bot, nil
}

func (s *NotificationService) DeleteBot(id uint) error {
	res := s.db.Delete(&models.NotifyBot{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Resource: "notify bot", ID: strconv.FormatUint(uint64(id), 10)}
	}
	return nil
}

// TestBot sends a short test message so admins can verify the webhook.
func (s *NotificationService) TestBot(id uint) error {
	var bot models.NotifyBot
	if err := s.db.First(&bot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Resource: "notify bot", ID: strconv.FormatUint(uint64(id), 10)}
		}
		return err
	}
	return getAdapter(bot.Type).SendText(&bot, "Rita survey platform: test notification.")
}
