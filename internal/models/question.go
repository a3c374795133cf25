package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Question types
const (
	QuestionTypeRating         = "rating"
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeNPSScale       = "nps_scale"
	QuestionTypeOpenText       = "open_text"
	QuestionTypeYesNoWithText  = "yes_no_with_text"
)

// Role tags identifying which side effect a valid answer triggers.
// Dispatch is on the tag, never on the numeric question id.
const (
	QuestionRoleNone     = "none"
	QuestionRoleRating   = "rating"
	QuestionRoleNPS      = "nps"
	QuestionRoleCallback = "callback"
)

// Question is one entry in the survey catalog. ID is assigned once and never
// reused; Order is the sequence key and is independent of ID.
type Question struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Order      int    `gorm:"column:sort_order;index;not null" json:"order"`
	Type       string `gorm:"size:30;not null" json:"type"`
	PromptText string `gorm:"size:500;not null" json:"prompt_text"`
	SMSText    string `gorm:"column:sms_text;type:text;not null" json:"sms_text"`
	Options    string `gorm:"type:text" json:"options"` // JSON array, choice-like types only
	Role       string `gorm:"size:20;default:none" json:"role"`

	// Validation rule, interpreted per type
	ValMin    *int `gorm:"column:val_min" json:"val_min,omitempty"`
	ValMax    *int `gorm:"column:val_max" json:"val_max,omitempty"`
	Required  bool `gorm:"default:true" json:"required"`
	MaxLength int  `gorm:"default:0" json:"max_length,omitempty"`

	HelpText string `gorm:"size:500" json:"help_text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Question) TableName() string { return "questions" }

// OptionList decodes the JSON-encoded options column.
func (q *Question) OptionList() []string {
	if q.Options == "" {
		return nil
	}
	var opts []string
	if err := json.Unmarshal([]byte(q.Options), &opts); err != nil {
		return nil
	}
	return opts
}

// SetOptions encodes the option list into the options column.
func (q *Question) SetOptions(opts []string) {
	if len(opts) == 0 {
		q.Options = ""
		return
	}
	b, _ := json.Marshal(opts)
	q.Options = string(b)
}
