package services

import (
	"strings"
	"testing"
)

func TestGetAdapter(t *testing.T) {
	for _, botType := range []string{"slack", "wechat_work", "dingtalk", "generic", "something_else"} {
		if getAdapter(botType) == nil {
			t.Fatalf("getAdapter(%q) returned nil", botType)
		}
	}
}

func TestBuildDigestText(t *testing.T) {
	n := &DigestNotification{
		Date:             "2026-03-04",
		BusinessName:     "Rita's Pet Supplies",
		SurveysStarted:   12,
		SurveysCompleted: 9,
		OptOuts:          1,
		AverageRating:    4.2,
		CompanyNPS:       45,
		ManagerCallbacks: 2,
		TopStoreLines:    []string{"Downtown: NPS 67 (3 surveys)"},
		Summary:          "Customers praised fast checkout.",
	}

	text := buildDigestText(n)
	for _, want := range []string{
		"Rita's Pet Supplies", "2026-03-04",
		"Started: 12", "Completed: 9", "Opt-outs: 1",
		"Average rating: 4.2/5", "NPS: 45", "Manager callbacks: 2",
		"Downtown: NPS 67", "fast checkout",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("digest missing %q:\n%s", want, text)
		}
	}
}

func TestDingTalkSignDeterministic(t *testing.T) {
	a := dingTalkSign(1700000000000, "secret")
	b := dingTalkSign(1700000000000, "secret")
	if a != b || a == "" {
		t.Errorf("signature not deterministic: %q vs %q", a, b)
	}
	if c := dingTalkSign(1700000000001, "secret"); c == a {
		t.Error("different timestamps should produce different signatures")
	}
}

func TestDingTalkWebhookURLWithoutSecret(t *testing.T) {
	url := "https://oapi.dingtalk.com/robot/send?access_token=abc"
	if got := dingTalkWebhookURL(url, ""); got != url {
		t.Errorf("no secret should leave the webhook untouched, got %q", got)
	}
	if got := dingTalkWebhookURL(url, "s"); !strings.Contains(got, "&timestamp=") || !strings.Contains(got, "&sign=") {
		t.Errorf("signed webhook missing parameters: %q", got)
	}
}
