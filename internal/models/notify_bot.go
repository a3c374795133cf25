package models

import (
	"time"

	"gorm.io/gorm"
)

// NotifyBot represents an IM webhook that receives operational pushes:
// daily survey digests and manager-callback alerts.
type NotifyBot struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	Name                 string         `gorm:"size:100;not null" json:"name"`
	Type                 string         `gorm:"size:50;not null" json:"type"` // slack, wechat_work, dingtalk, generic
	Webhook              string         `gorm:"size:500;not null" json:"webhook"`
	Secret               string         `gorm:"size:255" json:"-"`
	IsActive             bool           `gorm:"default:true" json:"is_active"`
	DailyReportEnabled   bool           `gorm:"default:false" json:"daily_report_enabled"`
	CallbackAlertEnabled bool           `gorm:"default:false" json:"callback_alert_enabled"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

func (NotifyBot) TableName() string { return "notify_bots" }
