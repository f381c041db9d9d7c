// ABOUTME: Tests for the leveled logging package
// ABOUTME: Validates level filtering, level parsing and output redirection

package log

import (
	"bytes"
	"strings"
	"testing"
)

// These tests mutate package globals and therefore do not run in parallel.

func TestSetLevel(t *testing.T) {
	saved := GetLevel()
	defer SetLevel(saved)

	SetLevel(LevelDebug)
	if GetLevel() != LevelDebug {
		t.Errorf("expected LevelDebug, got %v", GetLevel())
	}

	SetLevel(LevelError)
	if GetLevel() != LevelError {
		t.Errorf("expected LevelError, got %v", GetLevel())
	}
}

func TestFiltering(t *testing.T) {
	saved := GetLevel()
	defer SetLevel(saved)

	var buf bytes.Buffer
	prev := SetOutput(&buf)
	defer SetOutput(prev)

	SetLevel(LevelWarn)
	Debug("hidden %d", 1)
	Info("hidden %d", 2)
	Warn("shown %d", 3)
	Error("shown %d", 4)

	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Errorf("suppressed levels leaked: %q", got)
	}
	if !strings.Contains(got, "[WARN] shown 3\n") {
		t.Errorf("missing warn line in %q", got)
	}
	if !strings.Contains(got, "[ERROR] shown 4\n") {
		t.Errorf("missing error line in %q", got)
	}
}

func TestErrorAlwaysEmitted(t *testing.T) {
	saved := GetLevel()
	defer SetLevel(saved)

	var buf bytes.Buffer
	prev := SetOutput(&buf)
	defer SetOutput(prev)

	SetLevel(LevelError + 100)
	Error("boom")
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("error not emitted: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"debug", "DEBUG", false},
		{"INFO", "INFO", false},
		{"", "INFO", false},
		{"warning", "WARN", false},
		{"error", "ERROR", false},
		{"loud", "INFO", true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v; wantErr %v", tt.in, err, tt.wantErr)
		}
		if got.String() != tt.want {
			t.Errorf("ParseLevel(%q) = %v; want %s", tt.in, got, tt.want)
		}
	}
}
