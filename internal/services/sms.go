package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ritalabs/rita/internal/config"
	"github.com/ritalabs/rita/pkg/logger"
)

// SendResult reports a delivered (or accepted-for-delivery) message.
type SendResult struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
}

// SMSGateway delivers outbound text messages. A DeliveryError from Send is
// reported to the caller but never rolls back conversation state.
type SMSGateway interface {
	Send(ctx context.Context, to, body string) (*SendResult, error)
}

// TwilioGateway sends through the Twilio Messages API.
type TwilioGateway struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	client     *http.Client
}

func NewTwilioGateway(cfg *config.TwilioConfig) *TwilioGateway {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.twilio.com"
	}
	return &TwilioGateway{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.FromNumber,
		baseURL:    base,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *TwilioGateway) Send(ctx context.Context, to, body string) (*SendResult, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", g.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", g.baseURL, g.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &DeliveryError{Phone: to, Err: err}
	}
	req.SetBasicAuth(g.accountSID, g.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &DeliveryError{Phone: to, Err: err}
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		}
		_ = json.Unmarshal(data, &apiErr)
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return nil, &DeliveryError{Phone: to, Err: fmt.Errorf("twilio %d: %s", resp.StatusCode, apiErr.Message)}
	}

	var msg struct {
		SID    string `json:"sid"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, &DeliveryError{Phone: to, Err: fmt.Errorf("decode twilio response: %w", err)}
	}
	return &SendResult{MessageID: msg.SID, Status: msg.Status}, nil
}

// DebugGateway logs messages instead of sending them. Used when Twilio
// credentials are not configured so the whole flow can be exercised locally.
type DebugGateway struct{}

func (DebugGateway) Send(_ context.Context, to, body string) (*SendResult, error) {
	logger.Info().Str("to", to).Str("body", body).Msg("sms (debug mode, not sent)")
	return &SendResult{MessageID: fmt.Sprintf("debug-%d", time.Now().UnixNano()), Status: "simulated"}, nil
}

// NewGateway picks the Twilio gateway when credentials are present, the
// debug gateway otherwise.
func NewGateway(cfg *config.TwilioConfig) SMSGateway {
	if cfg.AccountSID != "" && cfg.AuthToken != "" && cfg.FromNumber != "" {
		return NewTwilioGateway(cfg)
	}
	logger.Warn().Msg("twilio credentials missing, outbound sms runs in debug mode")
	return DebugGateway{}
}
