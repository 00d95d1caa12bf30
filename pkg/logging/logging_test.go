package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		// Lowercase
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},

		// Uppercase
		{"DEBUG", LevelDebug},
		{"INFO", LevelInfo},
		{"WARN", LevelWarn},
		{"WARNING", LevelWarn},
		{"ERROR", LevelError},

		// Mixed case
		{"Debug", LevelDebug},
		{"Info", LevelInfo},
		{"Warn", LevelWarn},
		{"Warning", LevelWarn},
		{"Error", LevelError},
		{"dEbUg", LevelDebug},

		// Empty string defaults to Info
		{"", LevelInfo},
		{"  warn ", LevelWarn},

		// Unrecognized defaults to Info
		{"trace", LevelInfo},
		{"fatal", LevelInfo},
		{"unknown", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"Json", FormatJSON},
		{"text", FormatText},
		{"TEXT", FormatText},
		{"", FormatText},
		{"yaml", FormatText}, // unrecognized defaults to text
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseFormat(tt.input)
			if result != tt.expected {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestLevelFromString_Invalid(t *testing.T) {
	for _, in := range []string{"trace", "fatal", "verbose"} {
		if _, err := LevelFromString(in); err == nil {
			t.Errorf("LevelFromString(%q) returned no error", in)
		}
	}
}

func TestFormatFromString_Invalid(t *testing.T) {
	if _, err := FormatFromString("yaml"); err == nil {
		t.Error("FormatFromString(\"yaml\") returned no error")
	}
	if f, err := FormatFromString("JSON"); err != nil || f != FormatJSON {
		t.Errorf("FormatFromString(\"JSON\") = %v, %v", f, err)
	}
}

func TestNew_RespectsLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Format: FormatJSON, Output: &buf})

	logger.Info("dropped")
	logger.Warn("kept", "step", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rec["msg"] != "kept" || rec["step"] != float64(2) {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestNew_Mirror(t *testing.T) {
	var out, mirror bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatText, Output: &out, Mirror: &mirror})

	logger.With("session", "s-1").Info("passed")

	if !strings.Contains(out.String(), "msg=passed") {
		t.Errorf("text output missing record: %q", out.String())
	}
	var rec map[string]any
	if err := json.Unmarshal(mirror.Bytes(), &rec); err != nil {
		t.Fatalf("mirror output is not JSON: %v (%q)", err, mirror.String())
	}
	if rec["session"] != "s-1" {
		t.Errorf("mirror lost attrs: %v", rec)
	}
}

func TestNop_Discards(t *testing.T) {
	if Nop().Enabled(context.Background(), LevelError) {
		t.Error("Nop logger should not be enabled")
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestMultiHandler_ContinuesAfterFailure(t *testing.T) {
	var buf bytes.Buffer
	ok := slog.NewTextHandler(&buf, nil)
	h := NewMultiHandler(failingHandler{ok}, ok)

	err := h.Handle(context.Background(), slog.NewRecord(time.Time{}, LevelInfo, "hello", 0))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("expected joined error, got %v", err)
	}
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("second handler did not receive record: %q", buf.String())
	}
}
