package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":    zerolog.DebugLevel,
		"WARN":     zerolog.WarnLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"disabled": zerolog.Disabled,
		"bogus":    zerolog.InfoLevel,
		"":         zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCtxAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	ctx := ContextWithRequestID(context.Background(), "req-42")
	Ctx(ctx).Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-42"`) {
		t.Fatalf("request id missing from %s", out)
	}
	if !strings.Contains(out, `"message":"hello"`) {
		t.Fatalf("message missing from %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "error", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	Info().Msg("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at error level, got %s", buf.String())
	}
	Error().Msg("loud")
	if !strings.Contains(buf.String(), "loud") {
		t.Fatalf("error entry missing")
	}
}
