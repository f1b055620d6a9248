package logger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/storyboard/storyboard/pkg/logger"
)

func TestLoggerWritesStructuredLines(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("info", &buf)

	log.Info("Rendering frame", logger.WithField("frame", "greeting"))
	log.Debug("hidden at info level")
	log.Success("Asset generated")

	out := buf.String()
	if !strings.Contains(out, "INFO") || !strings.Contains(out, "Rendering frame") {
		t.Fatalf("info line missing from %q", out)
	}
	if !strings.Contains(out, "frame=greeting") {
		t.Fatalf("field missing from %q", out)
	}
	if strings.Contains(out, "hidden at info level") {
		t.Fatalf("debug line leaked into %q", out)
	}
	if !strings.Contains(out, "✅ Asset generated") {
		t.Fatalf("success line missing from %q", out)
	}
}

func TestWithScopePrefixesLines(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("debug", &buf)

	scoped := log.WithScope("inn.greeting.image")
	scoped.Warn("attempt running long")

	out := buf.String()
	if !strings.Contains(out, "inn.greeting.image") {
		t.Fatalf("scope missing from %q", out)
	}
	if !strings.Contains(out, "attempt running long") {
		t.Fatalf("message missing from %q", out)
	}

	// The parent logger stays unscoped.
	buf.Reset()
	log.Info("plain line")
	if strings.Contains(buf.String(), "inn.greeting.image") {
		t.Fatalf("scope leaked onto the parent logger: %q", buf.String())
	}
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("chatty", &buf)

	log.Debug("suppressed")
	log.Info("visible")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Fatalf("debug line visible under fallback level: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("info line missing from %q", out)
	}
}
