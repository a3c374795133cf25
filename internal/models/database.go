package models

import (
	"fmt"

	"github.com/ritalabs/rita/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&User{},
		&Question{},
		&Customer{},
		&Response{},
		&ScheduledBatch{},
		&ImportBatch{},
		&NotifyBot{},
		&DailyReport{},
		&SystemConfig{},
		&SystemLog{},
		&SchedulerLock{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultData creates the default survey catalog and system configs if absent.
func SeedDefaultData() error {
	var questionCount int64
	DB.Model(&Question{}).Count(&questionCount)
	if questionCount == 0 {
		if err := seedDefaultQuestions(); err != nil {
			return err
		}
	}

	defaultConfigs := []SystemConfig{
		{Key: "log_retention_days", Value: "30", Type: "int", Group: "system", Label: "System Log Retention Days"},
		{Key: "daily_report_enabled", Value: "false", Type: "bool", Group: "report", Label: "Enable Daily Survey Digest"},
		{Key: "daily_report_time", Value: "18:00", Type: "string", Group: "report", Label: "Daily Digest Send Time"},
		{Key: "sending_quiet_start", Value: "20:00", Type: "string", Group: "sending", Label: "Quiet Hours Start"},
		{Key: "sending_quiet_end", Value: "09:00", Type: "string", Group: "sending", Label: "Quiet Hours End"},
		{Key: "sending_country", Value: "US", Type: "string", Group: "sending", Label: "Business Calendar Country"},
		{Key: "sending_business_days_only", Value: "false", Type: "bool", Group: "sending", Label: "Dispatch on Business Days Only"},
	}

	for _, cfg := range defaultConfigs {
		var count int64
		DB.Model(&SystemConfig{}).Where("`key` = ?", cfg.Key).Count(&count)
		if count == 0 {
			if err := DB.Create(&cfg).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

func seedDefaultQuestions() error {
	min1, max5 := 1, 5
	min0, max10 := 0, 10

	questions := []Question{
		{
			Order:      1,
			Type:       QuestionTypeRating,
			Role:       QuestionRoleRating,
			PromptText: "Please rate your overall purchase experience on a scale of 1-5 stars",
			SMSText:    "Hi! Please rate your overall purchase experience. Reply with 1-5 (5 being the best).",
			ValMin:     &min1,
			ValMax:     &max5,
			Required:   true,
			HelpText:   "1=Poor, 2=Fair, 3=Good, 4=Very Good, 5=Excellent",
		},
		{
			Order:      2,
			Type:       QuestionTypeMultipleChoice,
			Role:       QuestionRoleNone,
			PromptText: "In what areas could we have improved your experience the most?",
			SMSText:    "What could we improve? Reply A, B, C, D, or E:\nA) Experience with our staff\nB) Product quality\nC) Paperwork process\nD) Everything was great!\nE) Other",
			Required:   true,
		},
		{
			Order:      3,
			Type:       QuestionTypeMultipleChoice,
			Role:       QuestionRoleNone,
			PromptText: "Have you received a follow up call from your sales associate?",
			SMSText:    "Have you received a follow-up call from your sales associate? Reply:\nA) Yes, we spoke\nB) Yes, left message\nC) No follow-up yet",
			Required:   true,
		},
		{
			Order:      4,
			Type:       QuestionTypeNPSScale,
			Role:       QuestionRoleNPS,
			PromptText: "How likely would you recommend us to a friend? (Net Promoter Score)",
			SMSText:    "On a scale of 0-10, how likely would you recommend us to a friend or colleague? (0=Not likely, 10=Extremely likely)",
			ValMin:     &min0,
			ValMax:     &max10,
			Required:   true,
			HelpText:   "0-6=Detractor, 7-8=Passive, 9-10=Promoter",
		},
		{
			Order:      5,
			Type:       QuestionTypeOpenText,
			Role:       QuestionRoleNone,
			PromptText: "Is there anything that would have made your experience with us better?",
			SMSText:    "Is there anything that would have made your experience with us better? Please share your thoughts or reply NONE if no suggestions.",
			Required:   false,
			MaxLength:  320,
		},
		{
			Order:      6,
			Type:       QuestionTypeYesNoWithText,
			Role:       QuestionRoleCallback,
			PromptText: "Would you like the store manager to call and follow up with you personally?",
			SMSText:    "Would you like the store manager to call you personally? Reply:\nA) No thanks, I'm set!\nB) Yes, please call me\n\nIf B, please briefly describe the topic.",
			Required:   true,
		},
	}

	questions[1].SetOptions([]string{
		"Experience with our staff",
		"Product quality",
		"The paperwork process",
		"Everything was great!",
		"Other (please specify)",
	})
	questions[2].SetOptions([]string{
		"Yes, and I have spoken with my sales associate",
		"Yes, but they left a message and we haven't spoken yet",
		"No, there has been no follow up call or message left",
	})

	for i := range questions {
		if err := DB.Create(&questions[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
