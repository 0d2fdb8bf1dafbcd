package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  log.Level
	}{
		{"debug", log.DebugLevel},
		{"info", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{" ERROR ", log.ErrorLevel},
		{"fatal", log.FatalLevel},
		{"", log.InfoLevel},
		{"loud", log.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseFormatter(t *testing.T) {
	tests := []struct {
		input string
		want  log.Formatter
	}{
		{"json", log.JSONFormatter},
		{"JSON", log.JSONFormatter},
		{"logfmt", log.LogfmtFormatter},
		{"text", log.TextFormatter},
		{"yaml", log.TextFormatter},
	}
	for _, tt := range tests {
		if got := ParseFormatter(tt.input); got != tt.want {
			t.Errorf("ParseFormatter(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewLoggerFromConfig(t *testing.T) {
	t.Run("level filters output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerFromConfig(&buf, "warn", "text", false, false)
		logger.Info("hidden")
		logger.Warn("shown")

		out := buf.String()
		if strings.Contains(out, "hidden") {
			t.Errorf("info message leaked at warn level: %q", out)
		}
		if !strings.Contains(out, "shown") {
			t.Errorf("warn message missing: %q", out)
		}
	})

	t.Run("json format carries fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerFromConfig(&buf, "debug", "json", false, false)
		logger.Debug("loaded tasks", "count", 3)

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("output is not JSON: %v: %q", err, buf.String())
		}
		if entry["msg"] != "loaded tasks" || entry["count"] != float64(3) {
			t.Errorf("unexpected entry: %v", entry)
		}
		if entry["prefix"] != "tasklist" {
			t.Errorf("prefix = %v, want tasklist", entry["prefix"])
		}
	})
}

func TestDiscard(t *testing.T) {
	// Must not panic and must be usable as a normal logger.
	Discard().Error("nothing", "k", "v")
}
