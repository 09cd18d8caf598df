package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xvierd/anchor-cli/internal/config"
)

func TestSetup_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(config.LoggingConfig{Level: "info", JSON: true}, &buf)
	t.Cleanup(func() { Setup(config.LoggingConfig{Level: "warn"}, nil) })

	log.Info().Str("mode", "strict").Msg("refreshed")
	logger.Debug().Msg("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["mode"] != "strict" || entry["message"] != "refreshed" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestSetup_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{level: "debug", want: zerolog.DebugLevel},
		{level: "ERROR", want: zerolog.ErrorLevel},
		{level: "", want: zerolog.WarnLevel},
		{level: "nonsense", want: zerolog.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := Setup(config.LoggingConfig{Level: tt.level}, &buf)
			if got := logger.GetLevel(); got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
	Setup(config.LoggingConfig{Level: "warn"}, nil)
}
