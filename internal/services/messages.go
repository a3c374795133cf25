package services

import (
	"fmt"
	"strings"

	"github.com/ritalabs/rita/internal/models"
)

// MessageBuilder renders every outbound SMS body. Wording lives here so the
// conversation engine stays free of copy text.
type MessageBuilder struct {
	BusinessName string
}

func NewMessageBuilder(businessName string) *MessageBuilder {
	if businessName == "" {
		businessName = "our store"
	}
	return &MessageBuilder{BusinessName: businessName}
}

// FirstQuestion greets the customer and asks the opening question. The
// opt-out disclaimer is appended once here and never repeated, unless the
// question text already mentions STOP.
func (m *MessageBuilder) FirstQuestion(c *models.Customer, q *models.Question, total int) string {
	var b strings.Builder
	name := strings.TrimSpace(c.FirstName)
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s! Thanks for your recent purchase from %s. We'd love your feedback!\n\n", name, m.BusinessName)
	fmt.Fprintf(&b, "Q1/%d: %s", total, q.SMSText)
	if !strings.Contains(strings.ToUpper(q.SMSText), "STOP") {
		b.WriteString("\n\nReply STOP to opt out anytime.")
	}
	return b.String()
}

// NextQuestion carries a progress indicator so the customer knows how much
// survey is left.
func (m *MessageBuilder) NextQuestion(q *models.Question, number, total int) string {
	return fmt.Sprintf("Q%d/%d: %s", number, total, q.SMSText)
}

// Retry pairs the interpreter's canonical error with the question's help
// text when it has any.
func (m *MessageBuilder) Retry(verr *ValidationError, q *models.Question) string {
	hint := strings.TrimSpace(q.HelpText)
	if hint == "" {
		hint = "Please try again."
	}
	return fmt.Sprintf("%s. %s", strings.TrimSuffix(verr.Message, "."), hint)
}

func (m *MessageBuilder) ThankYou(c *models.Customer) string {
	name := strings.TrimSpace(c.FirstName)
	if name == "" {
		return fmt.Sprintf("That's all our questions! Thank you for helping %s improve. Have a great day!", m.BusinessName)
	}
	return fmt.Sprintf("That's all our questions, %s! Thank you for helping %s improve. Have a great day!", name, m.BusinessName)
}

func (m *MessageBuilder) CallbackConfirmation(topic string) string {
	if strings.TrimSpace(topic) == "" {
		topic = "general feedback"
	}
	return fmt.Sprintf("A manager will call you within 24 hours regarding: %s", topic)
}

func (m *MessageBuilder) OptOutConfirmation() string {
	return fmt.Sprintf("You've been unsubscribed from %s surveys. You won't receive any more messages.", m.BusinessName)
}
