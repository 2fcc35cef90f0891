package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestSetupWriterLevel(t *testing.T) {
	orig := log.Default()
	t.Cleanup(func() { log.SetDefault(orig) })

	var buf bytes.Buffer
	logger := SetupWriter(&buf, "warn")
	if logger.GetLevel() != log.WarnLevel {
		t.Fatalf("expected warn level, got %v", logger.GetLevel())
	}

	For("scheduler").Info("hidden")
	For("scheduler").Warn("visible", "rows", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %s", out)
	}
	if !strings.Contains(out, "scheduler") || !strings.Contains(out, "rows=3") {
		t.Fatalf("expected prefixed warn line with fields, got %s", out)
	}
}

func TestSetupWriterUnknownLevel(t *testing.T) {
	orig := log.Default()
	t.Cleanup(func() { log.SetDefault(orig) })

	var buf bytes.Buffer
	logger := SetupWriter(&buf, "chatty")
	if logger.GetLevel() != log.InfoLevel {
		t.Fatalf("expected info fallback, got %v", logger.GetLevel())
	}
	if !strings.Contains(buf.String(), "unknown log level") {
		t.Fatalf("expected warning about level, got %s", buf.String())
	}
}
