package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

func TestLoggers(t *testing.T) {
	t.Run("NewLogger Writes To Writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)

		logger.Info("hello")

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log line in buffer, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger Creates Parent Directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "pagetune.log")

		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("failed to create file logger: %v", err)
		}

		logger.Info("startup")

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("log file should exist: %v", err)
		}
		if !strings.Contains(string(content), "startup") {
			t.Errorf("expected log line in file, got %q", content)
		}
	})

	t.Run("WithLogger Adds Fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "daemon")

		logger.Info("ready")

		if !strings.Contains(buf.String(), "component") {
			t.Errorf("expected component field in output, got %q", buf.String())
		}
	})

	t.Run("SetLogLevel Filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.ErrorLevel)

		logger.Info("quiet")

		if strings.Contains(buf.String(), "quiet") {
			t.Errorf("expected info line filtered at error level, got %q", buf.String())
		}
	})
}

func TestGenerateState(t *testing.T) {
	t.Run("Valid UUID", func(t *testing.T) {
		state, err := GenerateState()
		if err != nil {
			t.Fatalf("failed to generate state: %v", err)
		}

		if _, err := uuid.Parse(state); err != nil {
			t.Errorf("expected a parseable UUID, got %q: %v", state, err)
		}
	})

	t.Run("Distinct Across Calls", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 10; i++ {
			state, err := GenerateState()
			if err != nil {
				t.Fatalf("failed to generate state: %v", err)
			}
			if seen[state] {
				t.Fatalf("state %q repeated", state)
			}
			seen[state] = true
		}
	})
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]string{"key": "value"}

	t.Run("Compact", func(t *testing.T) {
		out, err := MarshalJSON(data, false)
		if err != nil {
			t.Fatalf("failed to marshal: %v", err)
		}
		if string(out) != `{"key":"value"}` {
			t.Errorf("unexpected output: %s", out)
		}
	})

	t.Run("Pretty", func(t *testing.T) {
		out, err := MarshalJSON(data, true)
		if err != nil {
			t.Fatalf("failed to marshal: %v", err)
		}
		if !strings.Contains(string(out), "  \"key\": \"value\"") {
			t.Errorf("expected indented output: %s", out)
		}
	})
}
