package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ritalabs/rita/internal/models"
	"github.com/ritalabs/rita/pkg/logger"
)

// NotificationAdapter formats and delivers pushes for one IM platform.
type NotificationAdapter interface {
	SendDigest(bot *models.NotifyBot, n *DigestNotification) error
	SendText(bot *models.NotifyBot, message string) error
}

func getAdapter(botType string) NotificationAdapter {
	switch botType {
	case "wechat_work":
		return &wecomAdapter{}
	case "dingtalk":
		return &dingtalkAdapter{}
	case "slack":
		return &slackAdapter{}
	default:
		return &genericAdapter{}
	}
}

var notificationHTTPClient = &http.Client{Timeout: 10 * time.Second}

func postJSON(webhookURL string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := notificationHTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}
	logger.Debug().Int("status", resp.StatusCode).Str("url", webhookURL).Msg("notification delivered")
	return nil
}

func buildDigestText(n *DigestNotification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Survey Digest - %s (%s)\n\n", n.BusinessName, n.Date)
	fmt.Fprintf(&b, "Started: %d  Completed: %d  Opt-outs: %d\n", n.SurveysStarted, n.SurveysCompleted, n.OptOuts)
	fmt.Fprintf(&b, "Average rating: %.1f/5\nNPS: %d\nManager callbacks: %d\n", n.AverageRating, n.CompanyNPS, n.ManagerCallbacks)
	if len(n.TopStoreLines) > 0 {
		b.WriteString("\nTop stores:\n")
		for _, line := range n.TopStoreLines {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	if n.Summary != "" {
		fmt.Fprintf(&b, "\n%s\n", n.Summary)
	}
	return b.String()
}

func dingTalkSign(timestamp int64, secret string) string {
	stringToSign := fmt.Sprintf("%d\n%s", timestamp, secret)
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func dingTalkWebhookURL(webhook, secret string) string {
	if secret == "" {
		return webhook
	}
	timestamp := time.Now().UnixMilli()
	sign := dingTalkSign(timestamp, secret)
	return fmt.Sprintf("%s&timestamp=%d&sign=%s", webhook, timestamp, url.QueryEscape(sign))
}

// wecomAdapter delivers to WeCom (Enterprise WeChat) group bots.
type wecomAdapter struct{}

func (a *wecomAdapter) SendDigest(bot *models.NotifyBot, n *DigestNotification) error {
	payload := map[string]interface{}{
		"msgtype": "markdown_v2",
		"markdown_v2": map[string]string{
			"content": buildDigestText(n),
		},
	}
	return postJSON(bot.Webhook, payload)
}

func (a *wecomAdapter) SendText(bot *models.NotifyBot, message string) error {
	payload := map[string]interface{}{
		"msgtype": "text",
		"text": map[string]string{
			"content": message,
		},
	}
	return postJSON(bot.Webhook, payload)
}

// dingtalkAdapter delivers to DingTalk group bots, signing the webhook URL
// when the bot has a secret.
type dingtalkAdapter struct{}

func (a *dingtalkAdapter) SendDigest(bot *models.NotifyBot, n *DigestNotification) error {
	payload := map[string]interface{}{
		"msgtype": "markdown",
		"markdown": map[string]string{
			"title": fmt.Sprintf("Survey Digest: %s", n.Date),
			"text":  buildDigestText(n),
		},
	}
	return postJSON(dingTalkWebhookURL(bot.Webhook, bot.Secret), payload)
}

func (a *dingtalkAdapter) SendText(bot *models.NotifyBot, message string) error {
	payload := map[string]interface{}{
		"msgtype": "text",
		"text": map[string]string{
			"content": message,
		},
	}
	return postJSON(dingTalkWebhookURL(bot.Webhook, bot.Secret), payload)
}

// slackAdapter delivers to Slack incoming webhooks.
type slackAdapter struct{}

func (a *slackAdapter) SendDigest(bot *models.NotifyBot, n *DigestNotification) error {
	header := fmt.Sprintf("*Survey Digest - %s (%s)*", n.BusinessName, n.Date)
	body := fmt.Sprintf("Started: %d | Completed: %d | Opt-outs: %d\nAverage rating: %.1f/5 | NPS: %d | Callbacks: %d",
		n.SurveysStarted, n.SurveysCompleted, n.OptOuts, n.AverageRating, n.CompanyNPS, n.ManagerCallbacks)
	if len(n.TopStoreLines) > 0 {
		body += "\n\n*Top stores:*\n" + strings.Join(n.TopStoreLines, "\n")
	}
	if n.Summary != "" {
		body += "\n\n" + n.Summary
	}

	payload := map[string]interface{}{
		"text": header,
		"blocks": []map[string]interface{}{
			{
				"type": "section",
				"text": map[string]string{"type": "mrkdwn", "text": header},
			},
			{
				"type": "section",
				"text": map[string]string{"type": "mrkdwn", "text": body},
			},
		},
	}
	return postJSON(bot.Webhook, payload)
}

func (a *slackAdapter) SendText(bot *models.NotifyBot, message string) error {
	return postJSON(bot.Webhook, map[string]interface{}{"text": message})
}

// genericAdapter posts the raw digest fields so custom receivers can
// format their own message.
type genericAdapter struct{}

func (a *genericAdapter) SendDigest(bot *models.NotifyBot, n *DigestNotification) error {
	payload := map[string]interface{}{
		"date":              n.Date,
		"business":          n.BusinessName,
		"surveys_started":   n.SurveysStarted,
		"surveys_completed": n.SurveysCompleted,
		"opt_outs":          n.OptOuts,
		"average_rating":    n.AverageRating,
		"company_nps":       n.CompanyNPS,
		"manager_callbacks": n.ManagerCallbacks,
		"summary":           n.Summary,
	}
	return postJSON(bot.Webhook, payload)
}

func (a *genericAdapter) SendText(bot *models.NotifyBot, message string) error {
	payload := map[string]interface{}{
		"type":    "alert",
		"message": message,
	}
	return postJSON(bot.Webhook, payload)
}
