package logging

import (
	"bytes"
	"context"
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
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"DEBUG", LevelDebug},
		{"Warning", LevelWarn},
		{"dEbUg", LevelDebug},

		// Empty and unrecognized default to Info
		{"", LevelInfo},
		{"trace", LevelInfo},
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
		{"text", FormatText},
		{"", FormatText},
		{"yaml", FormatText},
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

func TestNewRespectsLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Format: FormatJSON, Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"key":"value"`) {
		t.Errorf("expected JSON record, got %s", out)
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	l := Nop()
	if OrNop(l) != l {
		t.Error("OrNop should return the given logger")
	}
}

func TestForTest(t *testing.T) {
	logger := ForTest(t, LevelDebug)
	// Writes through t.Log; must not panic.
	logger.Debug("fixture registered", "kind", "client")
}

func TestTeeAndRecorder(t *testing.T) {
	debug := NewRecorder(LevelDebug)
	warn := NewRecorder(LevelWarn)
	logger := Tee(debug, warn).With("component", "test")

	logger.Debug("quiet", "n", 1)
	logger.Warn("loud")

	if got := debug.Messages(LevelDebug); len(got) != 1 || got[0] != "quiet" {
		t.Errorf("debug recorder debug messages = %v", got)
	}
	if got := warn.Messages(LevelDebug); len(got) != 0 {
		t.Errorf("warn recorder should not capture debug, got %v", got)
	}
	if got := warn.Messages(LevelWarn); len(got) != 1 {
		t.Errorf("warn recorder warn messages = %v", got)
	}

	entries := debug.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Attrs["component"] != "test" {
		t.Errorf("WithAttrs not propagated: %v", entries[0].Attrs)
	}
	if entries[0].Attrs["n"] != int64(1) {
		t.Errorf("record attr n = %v (%T)", entries[0].Attrs["n"], entries[0].Attrs["n"])
	}
}

func TestTeeHandlerEnabled(t *testing.T) {
	h := NewTeeHandler(NewRecorder(LevelError), NewRecorder(LevelInfo))
	if h.Enabled(context.Background(), LevelDebug) {
		t.Error("debug should be disabled")
	}
	if !h.Enabled(context.Background(), LevelInfo) {
		t.Error("info should be enabled")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != LevelInfo {
		t.Errorf("Level = %v, want info", cfg.Level)
	}
	if cfg.Format != FormatText {
		t.Errorf("Format = %q, want text", cfg.Format)
	}
	if cfg.Output == nil {
		t.Error("Output should default to stderr")
	}
}

type failingHandler struct {
	Recorder
	err error
}

func (h *failingHandler) Handle(ctx context.Context, r slog.Record) error {
	_ = h.Recorder.Handle(ctx, r)
	return h.err
}

func TestTeeHandlerJoinsErrors(t *testing.T) {
	errA := errors.New("handler a")
	errB := errors.New("handler b")
	a := &failingHandler{Recorder: *NewRecorder(LevelInfo), err: errA}
	ok := NewRecorder(LevelInfo)
	b := &failingHandler{Recorder: *NewRecorder(LevelInfo), err: errB}

	h := NewTeeHandler(a, ok, b)
	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), LevelInfo, "msg", 0))

	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("expected both handler errors, got %v", err)
	}
	for name, r := range map[string]*Recorder{"a": &a.Recorder, "ok": ok, "b": &b.Recorder} {
		if len(r.Entries()) != 1 {
			t.Errorf("handler %s got %d records, want 1", name, len(r.Entries()))
		}
	}

	if err := NewTeeHandler(ok).Handle(context.Background(), slog.NewRecord(time.Now(), LevelInfo, "msg", 0)); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}
