package services

import (
	"strings"
	"testing"

	"github.com/ritalabs/rita/internal/models"
)

func TestFirstQuestionIncludesDisclaimerOnce(t *testing.T) {
	mb := NewMessageBuilder("Rita's Pet Supplies")
	c := &models.Customer{FirstName: "Sam"}
	q := &models.Question{SMSText: "How satisfied were you? Reply 1-5."}

	msg := mb.FirstQuestion(c, q, 6)
	if !strings.Contains(msg, "Hi Sam!") {
		t.Errorf("greeting missing: %q", msg)
	}
	if !strings.Contains(msg, "Q1/6:") {
		t.Errorf("progress indicator missing: %q", msg)
	}
	if strings.Count(msg, "Reply STOP to opt out") != 1 {
		t.Errorf("expected exactly one disclaimer: %q", msg)
	}

	// A question that already mentions STOP should not get a second notice.
	q2 := &models.Question{SMSText: "Rate us 1-5. Reply STOP to opt out."}
	msg2 := mb.FirstQuestion(c, q2, 6)
	if strings.Count(strings.ToUpper(msg2), "STOP") != 1 {
		t.Errorf("duplicate opt-out notice: %q", msg2)
	}
}

func TestRetryUsesHelpText(t *testing.T) {
	mb := NewMessageBuilder("Rita's Pet Supplies")
	verr := &ValidationError{Message: "Please reply with a number from 1-5"}

	withHelp := mb.Retry(verr, &models.Question{HelpText: "1 = very unhappy, 5 = very happy"})
	if withHelp != "Please reply with a number from 1-5. 1 = very unhappy, 5 = very happy" {
		t.Errorf("retry = %q", withHelp)
	}

	without := mb.Retry(verr, &models.Question{})
	if without != "Please reply with a number from 1-5. Please try again." {
		t.Errorf("retry = %q", without)
	}
}

func TestCallbackConfirmationDefaultsTopic(t *testing.T) {
	mb := NewMessageBuilder("Rita's Pet Supplies")
	if got := mb.CallbackConfirmation(""); !strings.Contains(got, "general feedback") {
		t.Errorf("default topic missing: %q", got)
	}
	if got := mb.CallbackConfirmation("broken register"); !strings.Contains(got, "broken register") {
		t.Errorf("topic missing: %q", got)
	}
}
