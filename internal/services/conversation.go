package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/ritalabs/rita/internal/models"
	"github.com/ritalabs/rita/internal/utils"
	"github.com/ritalabs/rita/pkg/logger"
)

// lockArena hands out one mutex per customer id so conversations for
// different customers never serialize against each other. Entries are tiny
// and bounded by the customer count, so they are kept for the process
// lifetime.
type lockArena struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockArena() *lockArena {
	return &lockArena{locks: make(map[string]*sync.Mutex)}
}

func (a *lockArena) get(key string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[key]
	if !ok {
		l = &sync.Mutex{}
		a.locks[key] = l
	}
	return l
}

// InboundOutcome classifies what a reply did to the conversation.
type InboundOutcome string

const (
	OutcomeOptedOut  InboundOutcome = "opted_out"
	OutcomeRetry     InboundOutcome = "retry"
	OutcomeAdvanced  InboundOutcome = "advanced"
	OutcomeCompleted InboundOutcome = "completed"
)

// InboundResult is the structured outcome of one inbound reply.
type InboundResult struct {
	Outcome       InboundOutcome `json:"outcome"`
	Reply         string         `json:"reply"`
	QuestionID    *uint          `json:"question_id,omitempty"`
	DeliveryError string         `json:"delivery_error,omitempty"`
}

// StartResult reports a survey kick-off.
type StartResult struct {
	QuestionID    uint   `json:"question_id"`
	Message       string `json:"message"`
	DeliveryError string `json:"delivery_error,omitempty"`
}

// ConversationService drives per-customer survey conversations. All
// mutation of a customer record after import happens here, serialized per
// customer through the lock arena.
type ConversationService struct {
	db      *gorm.DB
	catalog *CatalogService
	gateway SMSGateway
	msgs    *MessageBuilder
	locks   *lockArena
}

func NewConversationService(db *gorm.DB, catalog *CatalogService, gateway SMSGateway, msgs *MessageBuilder) *ConversationService {
	return &ConversationService{
		db:      db,
		catalog: catalog,
		gateway: gateway,
		msgs:    msgs,
		locks:   newLockArena(),
	}
}

func (s *ConversationService) loadCustomer(id string) (*models.Customer, error) {
	var c models.Customer
	if err := s.db.Preload("Responses").First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "customer", ID: id}
		}
		return nil, err
	}
	return &c, nil
}

// ResolveActiveByPhone maps an inbound sender to their active survey by
// exact phone match. Used by the webhook layer; no match means the inbound
// is a transport-level no-op.
func (s *ConversationService) ResolveActiveByPhone(phone string) (*models.Customer, bool) {
	normalized := utils.NormalizePhone(phone)
	var c models.Customer
	err := s.db.Preload("Responses").
		Where("phone_number = ? AND status = ?", normalized, models.CustomerStatusActive).
		First(&c).Error
	if err != nil {
		return nil, false
	}
	return &c, true
}

// Start moves a customer into the active state and sends the first
// question. The state transition is persisted before the send; a delivery
// failure is reported but not rolled back.
func (s *ConversationService) Start(ctx context.Context, customerID string) (*StartResult, error) {
	lock := s.locks.get(customerID)
	lock.Lock()
	defer lock.Unlock()

	c, err := s.loadCustomer(customerID)
	if err != nil {
		return nil, err
	}
	if !utils.IsValidPhone(c.PhoneNumber) {
		return nil, newStateError("customer has no usable phone number")
	}
	if c.Status == models.CustomerStatusActive {
		return nil, newStateError("survey already in progress")
	}
	if c.Terminal() {
		return nil, newStateError("survey already %s", c.Status)
	}

	questions, err := s.catalog.GetOrdered()
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, newStateError("question catalog is empty")
	}

	first := &questions[0]
	now := time.Now()
	c.Status = models.CustomerStatusActive
	c.CurrentQuestionID = &first.ID
	c.SurveyStartedAt = &now
	if err := s.db.Save(c).Error; err != nil {
		return nil, fmt.Errorf("persist survey start: %w", err)
	}

	body := s.msgs.FirstQuestion(c, first, len(questions))
	result := &StartResult{QuestionID: first.ID, Message: body}
	if _, err := s.gateway.Send(ctx, c.PhoneNumber, body); err != nil {
		logger.Error().Err(err).Str("customer_id", c.ID).Msg("first question delivery failed")
		LogError("survey", "delivery_failed", "first question delivery failed", nil, "", "",
			map[string]interface{}{"customer_id": c.ID, "error": err.Error()})
		result.DeliveryError = err.Error()
		return result, err
	}
	logger.Info().Str("customer_id", c.ID).Uint("question_id", first.ID).Msg("survey started")
	return result, nil
}

// HandleInbound processes one reply from an active customer. Opt-out
// keywords win over everything else; otherwise the reply is interpreted
// against the current question and the conversation either retries,
// advances, or completes.
func (s *ConversationService) HandleInbound(ctx context.Context, customerID, text string) (*InboundResult, error) {
	lock := s.locks.get(customerID)
	lock.Lock()
	defer lock.Unlock()

	c, err := s.loadCustomer(customerID)
	if err != nil {
		return nil, err
	}
	if c.Status != models.CustomerStatusActive {
		return nil, newStateError("no survey awaiting an answer for this customer")
	}

	if keyword, ok := DetectOptOut(text); ok {
		return s.optOut(ctx, c, keyword)
	}

	questions, err := s.catalog.GetOrdered()
	if err != nil {
		return nil, err
	}

	current := findQuestion(questions, c.CurrentQuestionID)
	if current == nil {
		// The question was deleted mid-survey. Move to the first surviving
		// unanswered question, or finish if none remain.
		next := nextUnanswered(c, questions, nil)
		if next == nil {
			return s.complete(ctx, c)
		}
		c.CurrentQuestionID = &next.ID
		if err := s.db.Save(c).Error; err != nil {
			return nil, err
		}
		body := s.msgs.NextQuestion(next, questionNumber(questions, next.ID), len(questions))
		return s.reply(ctx, c, &InboundResult{Outcome: OutcomeAdvanced, Reply: body, QuestionID: &next.ID}, body)
	}

	answer, err := Interpret(current.Type, text)
	if err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			return nil, err
		}
		body := s.msgs.Retry(verr, current)
		return s.reply(ctx, c, &InboundResult{Outcome: OutcomeRetry, Reply: body, QuestionID: &current.ID}, body)
	}

	if c.HasResponse(current.ID) {
		return nil, newStateError("question %d already answered", current.ID)
	}

	now := time.Now()
	resp := models.Response{
		CustomerID:      c.ID,
		QuestionID:      current.ID,
		QuestionText:    current.PromptText,
		RawAnswer:       text,
		ProcessedAnswer: answer.Canonical(),
		AnsweredAt:      now,
	}
	applySideEffect(c, current, answer, text)

	next := nextUnanswered(c, questions, &current.ID)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&resp).Error; err != nil {
			return err
		}
		if next != nil {
			c.CurrentQuestionID = &next.ID
		} else {
			c.Status = models.CustomerStatusCompleted
			c.CurrentQuestionID = nil
			c.SurveyCompletedAt = &now
		}
		return tx.Save(c).Error
	})
	if err != nil {
		return nil, fmt.Errorf("persist answer: %w", err)
	}
	c.Responses = append(c.Responses, resp)

	if next != nil {
		body := s.msgs.NextQuestion(next, questionNumber(questions, next.ID), len(questions))
		return s.reply(ctx, c, &InboundResult{Outcome: OutcomeAdvanced, Reply: body, QuestionID: &next.ID}, body)
	}
	return s.finishMessages(ctx, c)
}

func (s *ConversationService) optOut(ctx context.Context, c *models.Customer, keyword string) (*InboundResult, error) {
	now := time.Now()
	c.Status = models.CustomerStatusOptedOut
	c.CurrentQuestionID = nil
	c.OptOutKeyword = keyword
	c.OptOutAt = &now
	if err := s.db.Save(c).Error; err != nil {
		return nil, fmt.Errorf("persist opt-out: %w", err)
	}
	logger.Info().Str("customer_id", c.ID).Str("keyword", keyword).Msg("customer opted out")
	body := s.msgs.OptOutConfirmation()
	return s.reply(ctx, c, &InboundResult{Outcome: OutcomeOptedOut, Reply: body}, body)
}

// complete closes a survey whose remaining questions all disappeared from
// the catalog.
func (s *ConversationService) complete(ctx context.Context, c *models.Customer) (*InboundResult, error) {
	now := time.Now()
	c.Status = models.CustomerStatusCompleted
	c.CurrentQuestionID = nil
	c.SurveyCompletedAt = &now
	if err := s.db.Save(c).Error; err != nil {
		return nil, err
	}
	return s.finishMessages(ctx, c)
}

// finishMessages sends the thank-you, plus at most one callback
// confirmation when the customer asked for a manager call.
func (s *ConversationService) finishMessages(ctx context.Context, c *models.Customer) (*InboundResult, error) {
	result := &InboundResult{Outcome: OutcomeCompleted, Reply: s.msgs.ThankYou(c)}
	var sendErr error
	if _, err := s.gateway.Send(ctx, c.PhoneNumber, result.Reply); err != nil {
		sendErr = err
	}
	if c.ManagerCallbackRequested {
		confirmation := s.msgs.CallbackConfirmation(c.CallbackTopic)
		if _, err := s.gateway.Send(ctx, c.PhoneNumber, confirmation); err != nil && sendErr == nil {
			sendErr = err
		}
	}
	if sendErr != nil {
		logger.Error().Err(sendErr).Str("customer_id", c.ID).Msg("completion delivery failed")
		result.DeliveryError = sendErr.Error()
		return result, sendErr
	}
	logger.Info().Str("customer_id", c.ID).Msg("survey completed")
	return result, nil
}

func (s *ConversationService) reply(ctx context.Context, c *models.Customer, result *InboundResult, body string) (*InboundResult, error) {
	if _, err := s.gateway.Send(ctx, c.PhoneNumber, body); err != nil {
		logger.Error().Err(err).Str("customer_id", c.ID).Msg("reply delivery failed")
		result.DeliveryError = err.Error()
		return result, err
	}
	return result, nil
}

// applySideEffect wires a valid answer to the customer field named by the
// question's role tag. Roles are explicit so catalog reordering never
// silently rewires them to the wrong question.
func applySideEffect(c *models.Customer, q *models.Question, answer Answer, raw string) {
	switch q.Role {
	case models.QuestionRoleRating:
		if c.SatisfactionRating == nil {
			v := answer.Score
			c.SatisfactionRating = &v
		}
	case models.QuestionRoleNPS:
		if c.NPSScore == nil {
			v := answer.Score
			c.NPSScore = &v
		}
	case models.QuestionRoleCallback:
		if answer.Yes && !c.ManagerCallbackRequested {
			c.ManagerCallbackRequested = true
			c.CallbackTopic = CallbackTopic(raw)
		}
	}
}

func findQuestion(questions []models.Question, id *uint) *models.Question {
	if id == nil {
		return nil
	}
	for i := range questions {
		if questions[i].ID == *id {
			return &questions[i]
		}
	}
	return nil
}

// nextUnanswered picks the next question in catalog order that the
// customer has not answered, skipping justAnswered even though its
// response row may not be visible in c.Responses yet.
func nextUnanswered(c *models.Customer, questions []models.Question, justAnswered *uint) *models.Question {
	for i := range questions {
		q := &questions[i]
		if justAnswered != nil && q.ID == *justAnswered {
			continue
		}
		if !c.HasResponse(q.ID) {
			return q
		}
	}
	return nil
}

func questionNumber(questions []models.Question, id uint) int {
	for i := range questions {
		if questions[i].ID == id {
			return i + 1
		}
	}
	return 0
}
