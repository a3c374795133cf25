package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// ScheduledBatch statuses
const (
	BatchStatusScheduled  = "scheduled"
	BatchStatusDispatched = "dispatched"
	BatchStatusCanceled   = "canceled"
)

// ScheduledBatch is a group of customers whose surveys start at a future time.
type ScheduledBatch struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	GroupName     string     `gorm:"size:200;not null" json:"group_name"`
	ScheduledAt   time.Time  `gorm:"index;not null" json:"scheduled_at"`
	CustomerIDs   string     `gorm:"type:text;not null" json:"-"` // JSON array of customer ids
	CustomerCount int        `json:"customer_count"`
	Status        string     `gorm:"size:20;index;default:scheduled" json:"status"`
	DispatchedAt  *time.Time `json:"dispatched_at,omitempty"`
	CreatedBy     uint       `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ScheduledBatch) TableName() string { return "scheduled_batches" }

// CustomerIDList decodes the JSON-encoded customer id column.
func (b *ScheduledBatch) CustomerIDList() []string {
	if b.CustomerIDs == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(b.CustomerIDs), &ids); err != nil {
		return nil
	}
	return ids
}

// SetCustomerIDs encodes the customer id list and updates the count.
func (b *ScheduledBatch) SetCustomerIDs(ids []string) {
	data, _ := json.Marshal(ids)
	b.CustomerIDs = string(data)
	b.CustomerCount = len(ids)
}

// ImportBatch records one CSV import run.
type ImportBatch struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	GroupName  string    `gorm:"size:200" json:"group_name"`
	Source     string    `gorm:"size:20" json:"source"` // file, paste
	Total      int       `json:"total"`
	Successful int       `json:"successful"`
	NeedsPhone int       `json:"needs_phone"`
	Skipped    int       `json:"skipped"`
	CreatedBy  uint      `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ImportBatch) TableName() string { return "import_batches" }
