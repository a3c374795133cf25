package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ritalabs/rita/internal/models"
)

// AnswerKind is the closed set of interpreted answer shapes, one per
// question type.
type AnswerKind string

const (
	AnswerRating AnswerKind = "rating"
	AnswerChoice AnswerKind = "choice"
	AnswerNPS    AnswerKind = "nps"
	AnswerYesNo  AnswerKind = "yes_no"
	AnswerText   AnswerKind = "text"
)

// Answer is the validated result of interpreting a raw SMS reply.
// Exactly one value field is meaningful per kind: Score for rating/nps,
// Choice for choice/yes_no, Text for open text.
type Answer struct {
	Kind   AnswerKind
	Score  int
	Choice string
	Text   string
	Yes    bool // only meaningful for AnswerYesNo
}

// Canonical returns the stored representation of the answer. Choice-like
// types store the uppercased canonical token, open text keeps original
// casing and punctuation.
func (a Answer) Canonical() string {
	switch a.Kind {
	case AnswerRating, AnswerNPS:
		return strconv.Itoa(a.Score)
	case AnswerChoice, AnswerYesNo:
		return a.Choice
	default:
		return a.Text
	}
}

var (
	choiceRe      = regexp.MustCompile(`^[A-E]$`)
	leadingIntRe  = regexp.MustCompile(`^(-?\d+)`)
	optOutPhrases = []string{"STOP", "UNSUBSCRIBE", "QUIT", "END", "CANCEL"}
)

// DetectOptOut scans a reply for opt-out keywords. The match is a
// case-insensitive substring test so wording like "please STOP now" still
// counts. The first keyword in the fixed order wins; it returns the matched
// keyword and true, or "" and false.
func DetectOptOut(text string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(text))
	for _, kw := range optOutPhrases {
		if strings.Contains(upper, kw) {
			return kw, true
		}
	}
	return "", false
}

// Interpret validates a raw reply against a question type. It is a pure
// function: opt-out scanning happens in the conversation engine before
// dispatch, since it is independent of the question type.
func Interpret(questionType, raw string) (Answer, error) {
	trimmed := strings.TrimSpace(raw)
	upper := strings.ToUpper(trimmed)

	switch questionType {
	case models.QuestionTypeRating:
		n, ok := leadingInt(upper)
		if !ok || n < 1 || n > 5 {
			return Answer{}, newValidationError("Please reply with a number from 1-5")
		}
		return Answer{Kind: AnswerRating, Score: n}, nil

	case models.QuestionTypeMultipleChoice:
		if !choiceRe.MatchString(upper) {
			return Answer{}, newValidationError("Please reply with A, B, C, D, or E")
		}
		return Answer{Kind: AnswerChoice, Choice: upper}, nil

	case models.QuestionTypeNPSScale:
		n, ok := leadingInt(upper)
		if !ok || n < 0 || n > 10 {
			return Answer{}, newValidationError("Please reply with a number from 0-10")
		}
		return Answer{Kind: AnswerNPS, Score: n}, nil

	case models.QuestionTypeYesNoWithText:
		// Only the first line selects the branch. Anything after it is
		// free text the caller may use as a callback topic.
		firstLine := upper
		if i := strings.IndexByte(firstLine, '\n'); i >= 0 {
			firstLine = strings.TrimSpace(firstLine[:i])
		}
		switch firstLine {
		case "A", "NO", "N":
			return Answer{Kind: AnswerYesNo, Choice: firstLine, Yes: false}, nil
		case "B", "YES", "Y":
			return Answer{Kind: AnswerYesNo, Choice: firstLine, Yes: true}, nil
		}
		return Answer{}, newValidationError("Please reply with A, B, YES, or NO")

	case models.QuestionTypeOpenText:
		if trimmed == "" {
			return Answer{}, newValidationError("Please provide a response")
		}
		return Answer{Kind: AnswerText, Text: trimmed}, nil
	}

	return Answer{}, newValidationError("Please try again")
}

func leadingInt(s string) (int, bool) {
	m := leadingIntRe.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// CallbackTopic extracts the free text following the first line of a
// yes/no reply, collapsing additional lines into a single space-joined
// sentence. Empty when the reply was only the branch token.
func CallbackTopic(raw string) string {
	lines := strings.Split(raw, "\n")
	if len(lines) < 2 {
		return ""
	}
	var parts []string
	for _, l := range lines[1:] {
		if t := strings.TrimSpace(l); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
