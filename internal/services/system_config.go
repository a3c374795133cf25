package services

import (
	"strconv"

	"gorm.io/gorm"

	"github.com/ritalabs/rita/internal/models"
)

type SystemConfigService struct {
	db *gorm.DB
}

func NewSystemConfigService(db *gorm.DB) *SystemConfigService {
	return &SystemConfigService{db: db}
}

func (s *SystemConfigService) Get(key string) (string, error) {
	var cfg models.SystemConfig
	if err := s.db.Where("`key` = ?", key).First(&cfg).Error; err != nil {
		return "", err
	}
	return cfg.Value, nil
}

func (s *SystemConfigService) GetWithDefault(key, defaultValue string) string {
	value, err := s.Get(key)
	if err != nil {
		return defaultValue
	}
	return value
}

func (s *SystemConfigService) GetInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(s.GetWithDefault(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return v
}

func (s *SystemConfigService) Set(key, value string) error {
	var cfg models.SystemConfig
	err := s.db.Where("`key` = ?", key).First(&cfg).Error
	if err == gorm.ErrRecordNotFound {
		cfg = models.SystemConfig{
			Key:   key,
			Value: value,
		}
		return s.db.Create(&cfg).Error
	}
	if err != nil {
		return err
	}
	return s.db.Model(&cfg).Update("value", value).Error
}

// SendingConfigResponse exposes the outbound sending window settings.
type SendingConfigResponse struct {
	QuietStart       string `json:"quiet_start"`
	QuietEnd         string `json:"quiet_end"`
	Country          string `json:"country"`
	BusinessDaysOnly bool   `json:"business_days_only"`
}

func (s *SystemConfigService) GetSendingConfig() *SendingConfigResponse {
	return &SendingConfigResponse{
		QuietStart:       s.GetWithDefault("sending_quiet_start", "20:00"),
		QuietEnd:         s.GetWithDefault("sending_quiet_end", "09:00"),
		Country:          s.GetWithDefault("sending_country", "US"),
		BusinessDaysOnly: s.GetWithDefault("sending_business_days_only", "false") == "true",
	}
}

type UpdateSendingConfigRequest struct {
	QuietStart       *string `json:"quiet_start"`
	QuietEnd         *string `json:"quiet_end"`
	Country          *string `json:"country"`
	BusinessDaysOnly *bool   `json:"business_days_only"`
}

func (s *SystemConfigService) UpdateSendingConfig(req *UpdateSendingConfigRequest) error {
	if req.QuietStart != nil {
		if _, ok := parseClock(*req.QuietStart); !ok {
			return newValidationError("quiet_start must be HH:MM")
		}
		if err := s.Set("sending_quiet_start", *req.QuietStart); err != nil {
			return err
		}
	}
	if req.QuietEnd != nil {
		if _, ok := parseClock(*req.QuietEnd); !ok {
			return newValidationError("quiet_end must be HH:MM")
		}
		if err := s.Set("sending_quiet_end", *req.QuietEnd); err != nil {
			return err
		}
	}
	if req.Country != nil {
		if err := s.Set("sending_country", *req.Country); err != nil {
			return err
		}
	}
	if req.BusinessDaysOnly != nil {
		if err := s.Set("sending_business_days_only", strconv.FormatBool(*req.BusinessDaysOnly)); err != nil {
			return err
		}
	}
	return nil
}
