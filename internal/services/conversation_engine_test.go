package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/ritalabs/rita/internal/models"
)

// recordingGateway captures outbound bodies instead of delivering them.
type recordingGateway struct {
	sent []string
}

func (g *recordingGateway) Send(_ context.Context, to, body string) (*SendResult, error) {
	g.sent = append(g.sent, body)
	return &SendResult{MessageID: "test", Status: "sent"}, nil
}

// failingGateway simulates a carrier outage on every send.
type failingGateway struct{}

func (failingGateway) Send(_ context.Context, to, body string) (*SendResult, error) {
	return nil, &DeliveryError{Phone: to, Err: errors.New("carrier unreachable")}
}

// newEngine builds a ConversationService over an in-memory database seeded
// with a three-question catalog: rating, nps, callback.
func newEngine(t *testing.T, gw SMSGateway) (*ConversationService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	catalog := NewCatalogService(db)
	seedQuestion(t, catalog, models.QuestionTypeRating, models.QuestionRoleRating, "How satisfied were you? Reply 1-5.")
	seedQuestion(t, catalog, models.QuestionTypeNPSScale, models.QuestionRoleNPS, "How likely are you to recommend us? Reply 0-10.")
	seedQuestion(t, catalog, models.QuestionTypeYesNoWithText, models.QuestionRoleCallback, "Want a manager to call? A) No B) Yes")
	return NewConversationService(db, catalog, gw, NewMessageBuilder("Rita's Pet Supplies")), db
}

func seedCustomer(t *testing.T, db *gorm.DB, id, phone, status string) {
	t.Helper()
	c := models.Customer{ID: id, FirstName: "Pat", PhoneNumber: phone, Status: status}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
}

func reload(t *testing.T, db *gorm.DB, id string) *models.Customer {
	t.Helper()
	var c models.Customer
	if err := db.Preload("Responses").First(&c, "id = ?", id).Error; err != nil {
		t.Fatalf("reload customer: %v", err)
	}
	return &c
}

func TestSurveyLifecycle(t *testing.T) {
	gw := &recordingGateway{}
	svc, db := newEngine(t, gw)
	seedCustomer(t, db, "c-1", "+12025550100", models.CustomerStatusReady)
	ctx := context.Background()

	if _, err := svc.Start(ctx, "c-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(gw.sent) != 1 || !strings.Contains(gw.sent[0], "Reply STOP") {
		t.Fatalf("first send missing opt-out notice: %v", gw.sent)
	}
	first := reload(t, db, "c-1")
	if first.Status != models.CustomerStatusActive || first.CurrentQuestionID == nil {
		t.Fatalf("start did not activate: %+v", first)
	}
	firstQID := *first.CurrentQuestionID

	// Out-of-range rating: one retry message, no advance.
	res, err := svc.HandleInbound(ctx, "c-1", "6")
	if err != nil || res.Outcome != OutcomeRetry {
		t.Fatalf("rating 6: res=%+v err=%v", res, err)
	}
	if len(gw.sent) != 2 {
		t.Fatalf("invalid reply sent %d messages, want exactly 1 retry", len(gw.sent)-1)
	}
	if c := reload(t, db, "c-1"); *c.CurrentQuestionID != firstQID || len(c.Responses) != 0 {
		t.Fatalf("invalid reply advanced the survey: %+v", c)
	}

	if res, err = svc.HandleInbound(ctx, "c-1", "4"); err != nil || res.Outcome != OutcomeAdvanced {
		t.Fatalf("rating 4: res=%+v err=%v", res, err)
	}
	if !strings.Contains(gw.sent[2], "Q2/3:") {
		t.Fatalf("progress indicator missing: %q", gw.sent[2])
	}
	if res, err = svc.HandleInbound(ctx, "c-1", "9"); err != nil || res.Outcome != OutcomeAdvanced {
		t.Fatalf("nps 9: res=%+v err=%v", res, err)
	}
	if res, err = svc.HandleInbound(ctx, "c-1", "B\nwrong puppy chow"); err != nil || res.Outcome != OutcomeCompleted {
		t.Fatalf("final answer: res=%+v err=%v", res, err)
	}

	done := reload(t, db, "c-1")
	if done.Status != models.CustomerStatusCompleted || done.CurrentQuestionID != nil {
		t.Fatalf("final state: %+v", done)
	}
	if len(done.Responses) != 3 {
		t.Fatalf("responses = %d, want one per question", len(done.Responses))
	}
	if done.SatisfactionRating == nil || *done.SatisfactionRating != 4 {
		t.Errorf("satisfaction rating = %v", done.SatisfactionRating)
	}
	if done.NPSScore == nil || *done.NPSScore != 9 {
		t.Errorf("nps score = %v", done.NPSScore)
	}
	if !done.ManagerCallbackRequested || done.CallbackTopic != "wrong puppy chow" {
		t.Errorf("callback = %v %q", done.ManagerCallbackRequested, done.CallbackTopic)
	}

	// Completion sends the thank-you then exactly one callback confirmation.
	if len(gw.sent) != 6 {
		t.Fatalf("total sends = %d, want 6", len(gw.sent))
	}
	if !strings.Contains(gw.sent[4], "Thank you") || !strings.Contains(gw.sent[5], "wrong puppy chow") {
		t.Errorf("completion sends: %q, %q", gw.sent[4], gw.sent[5])
	}

	// The conversation is terminal now.
	var serr *StateError
	if _, err := svc.HandleInbound(ctx, "c-1", "hello"); !errors.As(err, &serr) {
		t.Errorf("inbound after completion: got %v, want StateError", err)
	}
	if _, err := svc.Start(ctx, "c-1"); !errors.As(err, &serr) {
		t.Errorf("restart after completion: got %v, want StateError", err)
	}
}

func TestCompletionWithoutCallbackRequest(t *testing.T) {
	gw := &recordingGateway{}
	svc, db := newEngine(t, gw)
	seedCustomer(t, db, "c-2", "+12025550101", models.CustomerStatusReady)
	ctx := context.Background()

	if _, err := svc.Start(ctx, "c-2"); err != nil {
		t.Fatal(err)
	}
	for _, reply := range []string{"5", "10", "A"} {
		if _, err := svc.HandleInbound(ctx, "c-2", reply); err != nil {
			t.Fatalf("reply %q: %v", reply, err)
		}
	}

	// Start, two advances, thank-you. No callback confirmation.
	if len(gw.sent) != 4 {
		t.Fatalf("total sends = %d, want 4", len(gw.sent))
	}
	if !strings.Contains(gw.sent[3], "Thank you") {
		t.Errorf("last send = %q", gw.sent[3])
	}
	if c := reload(t, db, "c-2"); c.ManagerCallbackRequested {
		t.Errorf("no-branch set the callback flag: %+v", c)
	}
}

func TestOptOutPhraseMidSurvey(t *testing.T) {
	gw := &recordingGateway{}
	svc, db := newEngine(t, gw)
	seedCustomer(t, db, "c-3", "+12025550102", models.CustomerStatusReady)
	ctx := context.Background()

	if _, err := svc.Start(ctx, "c-3"); err != nil {
		t.Fatal(err)
	}
	res, err := svc.HandleInbound(ctx, "c-3", "please STOP now")
	if err != nil || res.Outcome != OutcomeOptedOut {
		t.Fatalf("opt-out phrase: res=%+v err=%v", res, err)
	}

	c := reload(t, db, "c-3")
	if c.Status != models.CustomerStatusOptedOut || c.OptOutKeyword != "STOP" || c.CurrentQuestionID != nil {
		t.Fatalf("opt-out state: %+v", c)
	}
	if !strings.Contains(gw.sent[len(gw.sent)-1], "unsubscribed") {
		t.Errorf("confirmation missing: %v", gw.sent)
	}

	// Absorbing state: no restart.
	var serr *StateError
	if _, err := svc.Start(ctx, "c-3"); !errors.As(err, &serr) {
		t.Errorf("restart after opt-out: got %v, want StateError", err)
	}
}

func TestStartWithoutPhoneLeavesStatus(t *testing.T) {
	gw := &recordingGateway{}
	svc, db := newEngine(t, gw)
	seedCustomer(t, db, "c-4", "", models.CustomerStatusPhoneNeeded)

	var serr *StateError
	if _, err := svc.Start(context.Background(), "c-4"); !errors.As(err, &serr) {
		t.Fatalf("start without phone: got %v, want StateError", err)
	}
	if c := reload(t, db, "c-4"); c.Status != models.CustomerStatusPhoneNeeded {
		t.Errorf("status mutated: %s", c.Status)
	}
	if len(gw.sent) != 0 {
		t.Errorf("sent %d messages for unreachable customer", len(gw.sent))
	}
}

func TestStartDeliveryFailureKeepsActive(t *testing.T) {
	svc, db := newEngine(t, failingGateway{})
	seedCustomer(t, db, "c-5", "+12025550103", models.CustomerStatusReady)

	result, err := svc.Start(context.Background(), "c-5")
	var derr *DeliveryError
	if !errors.As(err, &derr) {
		t.Fatalf("got %v, want DeliveryError", err)
	}
	if result == nil || result.DeliveryError == "" {
		t.Fatalf("result should carry the delivery error: %+v", result)
	}
	// The state transition is persisted before the send and not rolled back.
	if c := reload(t, db, "c-5"); c.Status != models.CustomerStatusActive || c.CurrentQuestionID == nil {
		t.Errorf("state rolled back on delivery failure: %+v", c)
	}
}
