package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/pagetune/internal/shared"
	tu "github.com/desertthunder/pagetune/internal/testing"
)

func TestNewRunner(t *testing.T) {
	t.Run("Applies Defaults", func(t *testing.T) {
		r := NewRunner(RunnerOpts{})

		if r.config == nil {
			t.Error("expected a default config")
		}
		if r.logger == nil {
			t.Error("expected a default logger")
		}
		if r.output == nil {
			t.Error("expected a default output writer")
		}
		if r.httpClient == nil {
			t.Error("expected a default HTTP client")
		}
	})

	t.Run("Keeps Provided Dependencies", func(t *testing.T) {
		var buf bytes.Buffer
		config := shared.DefaultConfig()
		config.Server.Port = 9999

		r := NewRunner(RunnerOpts{Config: config, Output: &buf})

		if r.config.Server.Port != 9999 {
			t.Errorf("expected provided config, got port %d", r.config.Server.Port)
		}
		if r.output != &buf {
			t.Error("expected provided output writer")
		}
	})
}

func TestRequireCoordinator(t *testing.T) {
	t.Run("Missing Credentials", func(t *testing.T) {
		r := NewRunner(RunnerOpts{})

		if err := r.requireCoordinator(); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestWriteJSON(t *testing.T) {
	t.Run("Compact", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRunner(RunnerOpts{Output: &buf})

		if err := r.writeJSON(map[string]string{"key": "value"}, false); err != nil {
			t.Fatalf("writeJSON failed: %v", err)
		}

		if got := buf.String(); got != "{\"key\":\"value\"}\n" {
			t.Errorf("unexpected output: %q", got)
		}
	})

	t.Run("Pretty", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRunner(RunnerOpts{Output: &buf})

		if err := r.writeJSON(map[string]string{"key": "value"}, true); err != nil {
			t.Fatalf("writeJSON failed: %v", err)
		}

		if !strings.Contains(buf.String(), "  \"key\": \"value\"") {
			t.Errorf("expected indented output, got %q", buf.String())
		}
	})

	t.Run("Write Failure", func(t *testing.T) {
		r := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

		if err := r.writeJSON(map[string]string{"key": "value"}, false); err == nil {
			t.Error("expected an error from a failing writer")
		}
	})
}

func TestWritePlain(t *testing.T) {
	t.Run("Formats Output", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRunner(RunnerOpts{Output: &buf})

		if err := r.writePlain("✓ %d track(s)\n", 3); err != nil {
			t.Fatalf("writePlain failed: %v", err)
		}

		if got := buf.String(); got != "✓ 3 track(s)\n" {
			t.Errorf("unexpected output: %q", got)
		}
	})

	t.Run("Write Failure", func(t *testing.T) {
		r := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

		if err := r.writePlain("anything"); err == nil {
			t.Error("expected an error from a failing writer")
		}
	})
}
