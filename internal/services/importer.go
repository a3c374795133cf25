package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ritalabs/rita/internal/models"
	"github.com/ritalabs/rita/internal/utils"
	"github.com/ritalabs/rita/pkg/logger"
)

// ImportService loads customers from CSV files or pasted CSV text and
// exports the current set back out. Rows without a usable phone number are
// kept in the phone_needed state instead of being dropped so staff can fix
// them later.
type ImportService struct {
	db *gorm.DB
}

func NewImportService(db *gorm.DB) *ImportService {
	return &ImportService{db: db}
}

// ImportSummary reports what happened to each row of an import.
type ImportSummary struct {
	BatchID    uint     `json:"batch_id"`
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	NeedsPhone int      `json:"needs_phone"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors,omitempty"`
}

// Recognized CSV headers, lowercased. CustomData1-4 come from the export
// format of common POS systems.
var headerAliases = map[string]string{
	"email":          "email",
	"firstname":      "first_name",
	"first_name":     "first_name",
	"lastname":       "last_name",
	"last_name":      "last_name",
	"phone":          "phone",
	"phonenumber":    "phone",
	"phone_number":   "phone",
	"customdata1":    "product",
	"product":        "product",
	"customdata2":    "purchase_date",
	"purchasedate":   "purchase_date",
	"purchase_date":  "purchase_date",
	"customdata3":    "sales_associate",
	"salesassociate": "sales_associate",
	"associate":      "sales_associate",
	"customdata4":    "store_location",
	"storelocation":  "store_location",
	"store":          "store_location",
}

// ImportCSV reads customer rows and persists them under a new import
// batch. Duplicate emails within the existing set are skipped.
func (s *ImportService) ImportCSV(r io.Reader, groupName, source string, createdBy uint) (*ImportSummary, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, newValidationError("csv is empty or unreadable")
	}

	cols := make([]string, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(h, " ", "")))
		cols[i] = headerAliases[key]
	}
	if !contains(cols, "email") {
		return nil, newValidationError("csv must include an Email column")
	}

	batch := &models.ImportBatch{
		GroupName: groupName,
		Source:    source,
		CreatedBy: createdBy,
	}
	if err := s.db.Create(batch).Error; err != nil {
		return nil, fmt.Errorf("create import batch: %w", err)
	}

	summary := &ImportSummary{BatchID: batch.ID}
	now := time.Now()
	line := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			summary.Skipped++
			summary.Errors = append(summary.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		summary.Total++

		c := models.Customer{
			ID:            uuid.NewString(),
			ImportBatchID: &batch.ID,
			ImportedAt:    now,
		}
		var rawPhone string
		for i, v := range record {
			if i >= len(cols) {
				break
			}
			v = strings.TrimSpace(v)
			switch cols[i] {
			case "email":
				c.Email = v
			case "first_name":
				c.FirstName = v
			case "last_name":
				c.LastName = v
			case "phone":
				rawPhone = v
			case "product":
				c.Product = v
			case "purchase_date":
				c.PurchaseDate = v
			case "sales_associate":
				c.SalesAssociate = v
			case "store_location":
				c.StoreLocation = v
			}
		}

		if c.Email == "" {
			summary.Skipped++
			summary.Errors = append(summary.Errors, fmt.Sprintf("line %d: missing email", line))
			continue
		}

		var dup int64
		s.db.Model(&models.Customer{}).Where("email = ?", c.Email).Count(&dup)
		if dup > 0 {
			summary.Skipped++
			summary.Errors = append(summary.Errors, fmt.Sprintf("line %d: %s already imported", line, c.Email))
			continue
		}

		normalized := utils.NormalizePhone(rawPhone)
		counter := &summary.Successful
		if utils.IsValidPhone(normalized) {
			c.PhoneNumber = normalized
			c.Status = models.CustomerStatusReady
		} else {
			c.PhoneNumber = rawPhone
			c.Status = models.CustomerStatusPhoneNeeded
			counter = &summary.NeedsPhone
		}
		*counter++

		if err := s.db.Create(&c).Error; err != nil {
			*counter--
			summary.Skipped++
			summary.Errors = append(summary.Errors, fmt.Sprintf("line %d: %v", line, err))
		}
	}

	batch.Total = summary.Total
	batch.Successful = summary.Successful
	batch.NeedsPhone = summary.NeedsPhone
	batch.Skipped = summary.Skipped
	if err := s.db.Save(batch).Error; err != nil {
		logger.Error().Err(err).Uint("batch_id", batch.ID).Msg("update import batch totals failed")
	}

	logger.Info().Uint("batch_id", batch.ID).Int("total", summary.Total).
		Int("successful", summary.Successful).Int("needs_phone", summary.NeedsPhone).
		Int("skipped", summary.Skipped).Msg("customer import finished")
	return summary, nil
}

// ImportText accepts pasted CSV content from the dashboard.
func (s *ImportService) ImportText(data, groupName string, createdBy uint) (*ImportSummary, error) {
	return s.ImportCSV(strings.NewReader(data), groupName, "pasted", createdBy)
}

// ExportCSV writes the full customer set, including survey outcomes, in a
// stable column order.
func (s *ImportService) ExportCSV(w io.Writer) error {
	var customers []models.Customer
	if err := s.db.Order("created_at ASC").Find(&customers).Error; err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{
		"Email", "FirstName", "LastName", "Phone", "Product", "PurchaseDate",
		"SalesAssociate", "StoreLocation", "Status", "SatisfactionRating",
		"NPSScore", "ManagerCallbackRequested", "CallbackTopic", "CompletedAt",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, c := range customers {
		row := []string{
			c.Email, c.FirstName, c.LastName, c.PhoneNumber, c.Product, c.PurchaseDate,
			c.SalesAssociate, c.StoreLocation, c.Status,
			intField(c.SatisfactionRating), intField(c.NPSScore),
			strconv.FormatBool(c.ManagerCallbackRequested), c.CallbackTopic,
			timeField(c.SurveyCompletedAt),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Batches lists import batches, newest first.
func (s *ImportService) Batches() ([]models.ImportBatch, error) {
	var batches []models.ImportBatch
	err := s.db.Order("created_at DESC").Find(&batches).Error
	return batches, err
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}

func intField(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func timeField(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
