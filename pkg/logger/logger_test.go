package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestInitStampsServiceField(t *testing.T) {
	Init("info")

	var buf bytes.Buffer
	l := Get().Output(&buf)
	l.Info().Msg("hello")

	if !strings.Contains(buf.String(), `"service":"rita-survey"`) {
		t.Errorf("service field missing from log line: %s", buf.String())
	}
}

func TestInitFallsBackToInfoLevel(t *testing.T) {
	Init("not-a-level")

	var buf bytes.Buffer
	l := Get().Output(&buf)
	l.Debug().Msg("hidden")
	l.Info().Msg("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line emitted at info level: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("info line suppressed: %s", out)
	}

	Init("info")
}
