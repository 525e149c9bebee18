package footprints

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Debug("find executed", "model", "author", "results", 3)
	logger.Error("store failed", "model", "book")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2", len(entries))
	}
	if entries[0].Message != "find executed" {
		t.Errorf("message = %q", entries[0].Message)
	}
	ctx := entries[0].ContextMap()
	if ctx["model"] != "author" {
		t.Errorf("model field = %v, want author", ctx["model"])
	}
	if entries[1].Level != zapcore.ErrorLevel {
		t.Errorf("level = %v, want error", entries[1].Level)
	}
}

func TestLoggerImplementationsDoNotPanic(t *testing.T) {
	loggers := []Logger{
		&NoOpLogger{},
		NewStdLogger("[test]"),
	}

	for _, l := range loggers {
		l.Debug("debug msg", "key", "value")
		l.Info("info msg", "odd-field-count")
		l.Warn("warn msg", "n", 42, "nil", nil)
		l.Error("error msg")
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{"s", "s"},
		{42, "42"},
		{nil, "<nil>"},
	}
	for _, tt := range tests {
		if got := toString(tt.in); got != tt.want {
			t.Errorf("toString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
