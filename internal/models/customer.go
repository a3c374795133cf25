package models

import (
	"time"

	"gorm.io/gorm"
)

// Customer status values. The lifecycle is monotonic except opted_out,
// which is reachable from any non-terminal state and is absorbing.
const (
	CustomerStatusPhoneNeeded = "phone_needed"
	CustomerStatusReady       = "ready"
	CustomerStatusActive      = "active"
	CustomerStatusCompleted   = "completed"
	CustomerStatusOptedOut    = "opted_out"
	CustomerStatusFailed      = "failed"
)

// Customer represents one survey recipient and their conversation state.
type Customer struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Email       string `gorm:"size:255;index" json:"email"`
	FirstName   string `gorm:"size:100" json:"first_name"`
	LastName    string `gorm:"size:100" json:"last_name"`
	PhoneNumber string `gorm:"size:32;index" json:"phone_number"`

	// Imported purchase context, used for greeting and analytics roll-ups
	Product        string `gorm:"size:200" json:"product"`
	PurchaseDate   string `gorm:"size:50" json:"purchase_date"`
	SalesAssociate string `gorm:"size:200;index" json:"sales_associate"`
	StoreLocation  string `gorm:"size:200;index" json:"store_location"`

	Status            string     `gorm:"size:20;index;default:phone_needed" json:"status"`
	CurrentQuestionID *uint      `json:"current_question_id"` // set only while status is active
	SurveyStartedAt   *time.Time `json:"survey_started_at"`
	SurveyCompletedAt *time.Time `json:"survey_completed_at"`

	// Side effects applied by role-tagged questions
	SatisfactionRating       *int   `json:"satisfaction_rating"` // 1-5
	NPSScore                 *int   `gorm:"column:nps_score" json:"nps_score"` // 0-10
	ManagerCallbackRequested bool   `gorm:"default:false" json:"manager_callback_requested"`
	CallbackTopic            string `gorm:"size:500" json:"callback_topic"`

	OptOutKeyword string     `gorm:"size:20" json:"opt_out_keyword,omitempty"`
	OptOutAt      *time.Time `json:"opt_out_at,omitempty"`

	Responses []Response `gorm:"foreignKey:CustomerID" json:"responses,omitempty"`

	ImportBatchID *uint          `gorm:"index" json:"import_batch_id,omitempty"`
	ImportedAt    time.Time      `json:"imported_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Customer) TableName() string { return "customers" }

// Terminal reports whether the conversation can never become active again.
func (c *Customer) Terminal() bool {
	return c.Status == CustomerStatusCompleted || c.Status == CustomerStatusOptedOut
}

// HasResponse reports whether a response for the given question was already recorded.
func (c *Customer) HasResponse(questionID uint) bool {
	for _, r := range c.Responses {
		if r.QuestionID == questionID {
			return true
		}
	}
	return false
}

// Response is one validated answer within a customer's survey.
// QuestionID is unique per customer; duplicates are rejected by the engine.
type Response struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CustomerID      string    `gorm:"size:36;index:idx_customer_question,unique;not null" json:"customer_id"`
	QuestionID      uint      `gorm:"index:idx_customer_question,unique;not null" json:"question_id"`
	QuestionText    string    `gorm:"size:500" json:"question_text"`
	RawAnswer       string    `gorm:"type:text" json:"raw_answer"`
	ProcessedAnswer string    `gorm:"size:500" json:"processed_answer"`
	AnsweredAt      time.Time `json:"answered_at"`
	CreatedAt       time.Time `json:"created_at"`
}

func (Response) TableName() string { return "responses" }
