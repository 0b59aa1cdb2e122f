package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLoggerWithWriter_RedactsSecrets(t *testing.T) {
	for _, format := range []string{"text", "json"} {
		var buf bytes.Buffer
		logger := NewLoggerWithWriter(slog.LevelDebug, format, &buf)
		logger.Info("login", "email", "a@x.com", "password", "hunter2", "token", "t1")

		out := buf.String()
		if strings.Contains(out, "hunter2") || strings.Contains(out, "t1\"") || strings.Contains(out, "token=t1") {
			t.Errorf("%s output leaked a secret: %s", format, out)
		}
		if !strings.Contains(out, Redacted) {
			t.Errorf("%s output missing redaction marker: %s", format, out)
		}
		if !strings.Contains(out, "a@x.com") {
			t.Errorf("%s output dropped a non-secret attribute: %s", format, out)
		}
	}
}

func TestNewLoggerWithWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelWarn, "text", &buf)
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("info message written at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn message missing")
	}
}
