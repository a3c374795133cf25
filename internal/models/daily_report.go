package models

import "time"

// DailyReport represents one day's survey activity digest.
type DailyReport struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ReportDate time.Time `gorm:"uniqueIndex;not null" json:"report_date"`

	SurveysStarted   int     `json:"surveys_started"`
	SurveysCompleted int     `json:"surveys_completed"`
	OptOuts          int     `json:"opt_outs"`
	AverageRating    float64 `json:"average_rating"`
	AverageNPS       float64 `gorm:"column:average_nps" json:"average_nps"`
	CompanyNPS       int     `gorm:"column:company_nps" json:"company_nps"`
	ManagerCallbacks int     `json:"manager_callbacks"`

	TopStores string `gorm:"type:text" json:"top_stores"` // JSON per-store rollup

	AISummary   string `gorm:"column:ai_summary;type:text" json:"ai_summary"`
	AIModelUsed string `gorm:"column:ai_model_used;size:100" json:"ai_model_used"`

	NotifiedAt  *time.Time `json:"notified_at"`
	NotifyError string     `gorm:"type:text" json:"notify_error"`

	CreatedAt time.Time `json:"created_at"`
}

func (DailyReport) TableName() string { return "daily_reports" }
