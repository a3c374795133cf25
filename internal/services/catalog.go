package services

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"gorm.io/gorm"

	"github.com/ritalabs/rita/internal/models"
	"github.com/ritalabs/rita/pkg/logger"
)

// ErrLastQuestion is returned when a delete would leave the catalog empty.
var ErrLastQuestion = errors.New("catalog must have at least one question")

// CatalogService owns the ordered set of survey questions. Edits are rare
// compared to conversation traffic, so a single RWMutex over the catalog is
// enough; readers in the engine always see a consistent ordered snapshot.
type CatalogService struct {
	db *gorm.DB
	mu sync.RWMutex
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// QuestionInput carries the editable fields of a question. IDs are assigned
// by the catalog and never supplied or changed by callers.
type QuestionInput struct {
	Type       string   `json:"type" binding:"required"`
	PromptText string   `json:"prompt_text" binding:"required"`
	SMSText    string   `json:"sms_text" binding:"required"`
	Options    []string `json:"options"`
	Role       string   `json:"role"`
	ValMin     *int     `json:"val_min"`
	ValMax     *int     `json:"val_max"`
	Required   bool     `json:"required"`
	MaxLength  int      `json:"max_length"`
	HelpText   string   `json:"help_text"`
}

func validQuestionType(t string) bool {
	switch t {
	case models.QuestionTypeRating, models.QuestionTypeMultipleChoice,
		models.QuestionTypeNPSScale, models.QuestionTypeOpenText,
		models.QuestionTypeYesNoWithText:
		return true
	}
	return false
}

func validQuestionRole(r string) bool {
	switch r {
	case "", models.QuestionRoleNone, models.QuestionRoleRating,
		models.QuestionRoleNPS, models.QuestionRoleCallback:
		return true
	}
	return false
}

// Add appends a question at the end of the ordering.
func (s *CatalogService) Add(in *QuestionInput) (*models.Question, error) {
	if !validQuestionType(in.Type) {
		return nil, newValidationError("unknown question type: %s", in.Type)
	}
	if !validQuestionRole(in.Role) {
		return nil, newValidationError("unknown question role: %s", in.Role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var maxOrder int
	s.db.Model(&models.Question{}).Select("COALESCE(MAX(sort_order), 0)").Scan(&maxOrder)

	q := &models.Question{
		Order:      maxOrder + 1,
		Type:       in.Type,
		PromptText: in.PromptText,
		SMSText:    in.SMSText,
		Role:       normalizeRole(in.Role),
		ValMin:     in.ValMin,
		ValMax:     in.ValMax,
		Required:   in.Required,
		MaxLength:  in.MaxLength,
		HelpText:   in.HelpText,
	}
	q.SetOptions(in.Options)
	if err := s.db.Create(q).Error; err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// Update replaces every editable field of a question. Edits to a
// role-bearing question can rewire survey side effects, so they are logged.
func (s *CatalogService) Update(id uint, in *QuestionInput) (*models.Question, error) {
	if !validQuestionType(in.Type) {
		return nil, newValidationError("unknown question type: %s", in.Type)
	}
	if !validQuestionRole(in.Role) {
		return nil, newValidationError("unknown question role: %s", in.Role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var q models.Question
	if err := s.db.First(&q, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "question", ID: strconv.FormatUint(uint64(id), 10)}
		}
		return nil, err
	}

	newRole := normalizeRole(in.Role)
	if q.Role != models.QuestionRoleNone && q.Role != newRole {
		logger.Warn().Uint("question_id", q.ID).Str("old_role", q.Role).Str("new_role", newRole).
			Msg("role-bearing question edited, survey side effects change")
		LogWarning("catalog", "role_change",
			fmt.Sprintf("question %d role changed from %s to %s", q.ID, q.Role, newRole),
			nil, "", "", nil)
	}

	q.Type = in.Type
	q.PromptText = in.PromptText
	q.SMSText = in.SMSText
	q.Role = newRole
	q.ValMin = in.ValMin
	q.ValMax = in.ValMax
	q.Required = in.Required
	q.MaxLength = in.MaxLength
	q.HelpText = in.HelpText
	q.SetOptions(in.Options)
	if err := s.db.Save(&q).Error; err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}
	return &q, nil
}

// Delete removes a question. The catalog may never become empty.
func (s *CatalogService) Delete(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	if err := s.db.Model(&models.Question{}).Count(&count).Error; err != nil {
		return err
	}
	if count <= 1 {
		return ErrLastQuestion
	}

	var q models.Question
	if err := s.db.First(&q, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Resource: "question", ID: strconv.FormatUint(uint64(id), 10)}
		}
		return err
	}
	if q.Role != models.QuestionRoleNone {
		logger.Warn().Uint("question_id", q.ID).Str("role", q.Role).
			Msg("role-bearing question deleted, its side effect no longer fires")
		LogWarning("catalog", "role_delete",
			fmt.Sprintf("role-bearing question %d (%s) deleted", q.ID, q.Role),
			nil, "", "", nil)
	}
	return s.db.Delete(&q).Error
}

// GetOrdered returns the catalog by ascending order key.
func (s *CatalogService) GetOrdered() ([]models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var questions []models.Question
	if err := s.db.Order("sort_order ASC").Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (s *CatalogService) GetByID(id uint) (*models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var q models.Question
	if err := s.db.First(&q, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "question", ID: strconv.FormatUint(uint64(id), 10)}
		}
		return nil, err
	}
	return &q, nil
}

// Reorder applies a full new ordering given the complete list of question
// ids. Every existing question must appear exactly once.
func (s *CatalogService) Reorder(ids []uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	if err := s.db.Model(&models.Question{}).Count(&count).Error; err != nil {
		return err
	}
	if int64(len(ids)) != count {
		return newValidationError("reorder must list all %d questions", count)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			res := tx.Model(&models.Question{}).Where("id = ?", id).Update("sort_order", i+1)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &NotFoundError{Resource: "question", ID: strconv.FormatUint(uint64(id), 10)}
			}
		}
		return nil
	})
}

func normalizeRole(r string) string {
	if r == "" {
		return models.QuestionRoleNone
	}
	return r
}
