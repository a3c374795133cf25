package services

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ritalabs/rita/internal/models"
)

// newTestDB opens a per-test in-memory sqlite database. The name is derived
// from the test so parallel tests never share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Question{}, &models.Customer{}, &models.Response{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedQuestion(t *testing.T, svc *CatalogService, qtype, role, text string) *models.Question {
	t.Helper()
	q, err := svc.Add(&QuestionInput{Type: qtype, Role: role, PromptText: text, SMSText: text})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	return q
}

func TestCatalogAddAppendsInOrder(t *testing.T) {
	svc := NewCatalogService(newTestDB(t))

	a := seedQuestion(t, svc, models.QuestionTypeRating, models.QuestionRoleRating, "Rate us 1-5.")
	b := seedQuestion(t, svc, models.QuestionTypeOpenText, "", "Anything else?")
	if a.Order != 1 || b.Order != 2 {
		t.Errorf("orders = %d, %d, want 1, 2", a.Order, b.Order)
	}

	qs, err := svc.GetOrdered()
	if err != nil || len(qs) != 2 || qs[0].ID != a.ID || qs[1].ID != b.ID {
		t.Fatalf("GetOrdered = %v, %v", qs, err)
	}
}

func TestCatalogAddValidation(t *testing.T) {
	svc := NewCatalogService(newTestDB(t))

	var verr *ValidationError
	_, err := svc.Add(&QuestionInput{Type: "essay", PromptText: "x", SMSText: "x"})
	if !errors.As(err, &verr) {
		t.Errorf("unknown type: got %v, want ValidationError", err)
	}
	_, err = svc.Add(&QuestionInput{Type: models.QuestionTypeRating, Role: "mood", PromptText: "x", SMSText: "x"})
	if !errors.As(err, &verr) {
		t.Errorf("unknown role: got %v, want ValidationError", err)
	}
}

func TestCatalogUpdateReplacesFields(t *testing.T) {
	svc := NewCatalogService(newTestDB(t))
	q := seedQuestion(t, svc, models.QuestionTypeRating, models.QuestionRoleRating, "Rate us 1-5.")

	updated, err := svc.Update(q.ID, &QuestionInput{
		Type:       models.QuestionTypeOpenText,
		Role:       "",
		PromptText: "Tell us more",
		SMSText:    "What could we do better?",
		HelpText:   "Any detail helps",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Type != models.QuestionTypeOpenText || updated.Role != models.QuestionRoleNone ||
		updated.SMSText != "What could we do better?" || updated.HelpText != "Any detail helps" {
		t.Errorf("fields not replaced: %+v", updated)
	}
	if updated.Order != q.Order {
		t.Errorf("order changed by update: %d -> %d", q.Order, updated.Order)
	}

	var nferr *NotFoundError
	if _, err := svc.Update(9999, &QuestionInput{Type: models.QuestionTypeRating, PromptText: "x", SMSText: "x"}); !errors.As(err, &nferr) {
		t.Errorf("missing id: got %v, want NotFoundError", err)
	}
}

func TestCatalogDeleteKeepsLastQuestion(t *testing.T) {
	svc := NewCatalogService(newTestDB(t))
	only := seedQuestion(t, svc, models.QuestionTypeRating, models.QuestionRoleRating, "Rate us 1-5.")

	if err := svc.Delete(only.ID); !errors.Is(err, ErrLastQuestion) {
		t.Fatalf("delete of last question: got %v, want ErrLastQuestion", err)
	}
	qs, err := svc.GetOrdered()
	if err != nil || len(qs) != 1 || qs[0].ID != only.ID {
		t.Fatalf("catalog changed by rejected delete: %v, %v", qs, err)
	}

	// With a second question present the same delete goes through.
	second := seedQuestion(t, svc, models.QuestionTypeOpenText, "", "Anything else?")
	if err := svc.Delete(only.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	qs, _ = svc.GetOrdered()
	if len(qs) != 1 || qs[0].ID != second.ID {
		t.Fatalf("catalog after delete = %v", qs)
	}
}

func TestCatalogReorder(t *testing.T) {
	svc := NewCatalogService(newTestDB(t))
	a := seedQuestion(t, svc, models.QuestionTypeRating, models.QuestionRoleRating, "Rate us 1-5.")
	b := seedQuestion(t, svc, models.QuestionTypeNPSScale, models.QuestionRoleNPS, "0-10?")
	c := seedQuestion(t, svc, models.QuestionTypeOpenText, "", "Anything else?")

	if err := svc.Reorder([]uint{c.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	qs, err := svc.GetOrdered()
	if err != nil {
		t.Fatal(err)
	}
	if qs[0].ID != c.ID || qs[1].ID != a.ID || qs[2].ID != b.ID {
		t.Errorf("order after reorder = %d, %d, %d", qs[0].ID, qs[1].ID, qs[2].ID)
	}

	var verr *ValidationError
	if err := svc.Reorder([]uint{a.ID}); !errors.As(err, &verr) {
		t.Errorf("partial id list: got %v, want ValidationError", err)
	}

	var nferr *NotFoundError
	if err := svc.Reorder([]uint{a.ID, b.ID, 9999}); !errors.As(err, &nferr) {
		t.Errorf("unknown id: got %v, want NotFoundError", err)
	}
	// The failed reorder must roll back entirely.
	qs, _ = svc.GetOrdered()
	if qs[0].ID != c.ID || qs[1].ID != a.ID || qs[2].ID != b.ID {
		t.Errorf("order mutated by failed reorder = %d, %d, %d", qs[0].ID, qs[1].ID, qs[2].ID)
	}
}
