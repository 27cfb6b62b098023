package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestNew_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf)
	logger.Info().Str("entity", "ent_0001").Int("variants", 3).Msg("resolved")

	line := buf.String()
	for _, want := range []string{`"entity":"ent_0001"`, `"variants":3`, `"time"`, `"resolved"`} {
		if !strings.Contains(line, want) {
			t.Errorf("Expected log line to contain %s, got %s", want, line)
		}
	}
}

func TestSetDefault(t *testing.T) {
	var buf bytes.Buffer
	old := *Default()
	defer SetDefault(old)

	SetDefault(New(&buf))
	Info().Msg("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("Expected the replaced logger to receive events, got %q", buf.String())
	}
}
