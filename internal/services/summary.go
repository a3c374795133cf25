package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ritalabs/rita/internal/config"
)

// SummaryService condenses a day's open-text feedback into a short
// paragraph for the digest, through any OpenAI-compatible endpoint.
// Optional: without an API key the digest simply omits the summary.
type SummaryService struct {
	cfg *config.ReportConfig
}

func NewSummaryService(cfg *config.ReportConfig) *SummaryService {
	return &SummaryService{cfg: cfg}
}

func (s *SummaryService) Enabled() bool {
	return s.cfg != nil && s.cfg.APIKey != ""
}

func (s *SummaryService) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return openai.GPT4oMini
}

// Summarize returns a two-to-three sentence digest of the given feedback
// texts. Input is capped at 50 comments of 300 chars each to stay inside
// the model's context window.
func (s *SummaryService) Summarize(ctx context.Context, businessName string, comments []string) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	if len(comments) == 0 {
		return "", nil
	}

	const maxComments = 50
	if len(comments) > maxComments {
		comments = comments[:maxComments]
	}
	var b strings.Builder
	for i, c := range comments {
		if len(c) > 300 {
			c = c[:300]
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, c)
	}

	prompt := fmt.Sprintf(`You are summarizing customer survey feedback for %s.
Below are today's open-text responses. Write 2-3 sentences covering the main
themes, one clear strength, and one area to improve. Plain text only.

%s`, businessName, b.String())

	clientConfig := openai.DefaultConfig(s.cfg.APIKey)
	if s.cfg.BaseURL != "" {
		clientConfig.BaseURL = s.cfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.Model(),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   300,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("summarize feedback: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summarize feedback: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
