package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewWithWriter_Level(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		log := NewWithWriter(&bytes.Buffer{}, tt.level)
		if log.GetLevel() != tt.want {
			t.Errorf("level %q: got %v, want %v", tt.level, log.GetLevel(), tt.want)
		}
	}
}

func TestNewWithWriter_WritesFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf, "info")

	log.Info().Int64("user_id", 42).Msg("test message")

	out := buf.String()
	if !strings.Contains(out, "test message") || !strings.Contains(out, `"user_id":42`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestNewWithWriter_FiltersBelowLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf, "error")

	log.Info().Msg("hidden")

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %s", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf, "info"))

	log := FromContext(ctx)
	log.Info().Msg("from ctx")

	if !strings.Contains(buf.String(), "from ctx") {
		t.Errorf("expected logger from context to write, got %q", buf.String())
	}
}

func TestFromContext_Default(t *testing.T) {
	log := FromContext(context.Background())
	if log.GetLevel() != zerolog.Disabled {
		t.Errorf("expected disabled logger, got %v", log.GetLevel())
	}
}
