package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/ritalabs/rita/internal/models"
	"github.com/ritalabs/rita/internal/utils"
)

// CustomerService covers customer CRUD outside the conversation itself:
// listing, phone fixes, and lookup for the dashboard.
type CustomerService struct {
	db *gorm.DB
}

func NewCustomerService(db *gorm.DB) *CustomerService {
	return &CustomerService{db: db}
}

// CustomerFilter narrows List results. Zero values mean no filtering.
type CustomerFilter struct {
	Status   string
	Store    string
	Search   string // matched against name, email, phone
	BatchID  *uint
	Page     int
	PageSize int
}

func (s *CustomerService) List(f CustomerFilter) ([]models.Customer, int64, error) {
	query := s.db.Model(&models.Customer{})

	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Store != "" {
		query = query.Where("store_location = ?", f.Store)
	}
	if f.BatchID != nil {
		query = query.Where("import_batch_id = ?", *f.BatchID)
	}
	if f.Search != "" {
		like := "%" + strings.TrimSpace(f.Search) + "%"
		query = query.Where(
			"first_name LIKE ? OR last_name LIKE ? OR email LIKE ? OR phone_number LIKE ?",
			like, like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 200 {
		f.PageSize = 50
	}

	var customers []models.Customer
	err := query.Preload("Responses").
		Order("created_at DESC").
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Find(&customers).Error
	return customers, total, err
}

func (s *CustomerService) Get(id string) (*models.Customer, error) {
	var c models.Customer
	if err := s.db.Preload("Responses").First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "customer", ID: id}
		}
		return nil, err
	}
	return &c, nil
}

// All returns the entire customer set, used by the analytics snapshot.
func (s *CustomerService) All() ([]models.Customer, error) {
	var customers []models.Customer
	if err := s.db.Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

// SetPhone fills in or corrects a phone number. Customers imported without
// one become ready to survey once a valid number lands.
func (s *CustomerService) SetPhone(id, phone string) (*models.Customer, error) {
	c, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if c.Terminal() {
		return nil, newStateError("customer survey already %s", c.Status)
	}

	normalized := utils.NormalizePhone(phone)
	if !utils.IsValidPhone(normalized) {
		return nil, newValidationError("invalid phone number: %s", phone)
	}

	c.PhoneNumber = normalized
	if c.Status == models.CustomerStatusPhoneNeeded || c.Status == models.CustomerStatusFailed {
		c.Status = models.CustomerStatusReady
	}
	if err := s.db.Save(c).Error; err != nil {
		return nil, fmt.Errorf("update phone: %w", err)
	}
	return c, nil
}

func (s *CustomerService) Delete(id string) error {
	res := s.db.Delete(&models.Customer{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Resource: "customer", ID: id}
	}
	return nil
}

// ManagerCallbacks lists completed customers who asked for a manager call,
// newest first.
func (s *CustomerService) ManagerCallbacks() ([]models.Customer, error) {
	var customers []models.Customer
	err := s.db.
		Where("manager_callback_requested = ? AND status = ?", true, models.CustomerStatusCompleted).
		Order("survey_completed_at DESC").
		Find(&customers).Error
	return customers, err
}

// CountByStatus summarizes the customer set for the health endpoint and
// dashboard header.
func (s *CustomerService) CountByStatus() (map[string]int64, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	err := s.db.Model(&models.Customer{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}
