package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: FormatText, Component: ComponentAPI, Output: &buf})

	logger.Info("request failed", FieldStatusCode, 500)
	out := buf.String()
	if !strings.Contains(out, "component=api") || !strings.Contains(out, "status_code=500") {
		t.Fatalf("unexpected log line: %s", out)
	}

	buf.Reset()
	logger.WithComponent(ComponentLedger).Warn("publish skipped")
	if !strings.Contains(buf.String(), "component=ledger") {
		t.Fatalf("expected ledger component, got: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	logger := Discard()
	ctx := NewContext(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatalf("expected logger from context")
	}
	if FromContext(context.Background()) == nil {
		t.Fatalf("expected default logger")
	}
	ctx = WithRequestID(ctx, "req-1")
	if RequestIDFromContext(ctx) != "req-1" {
		t.Fatalf("expected request id")
	}
}

func TestLogFields(t *testing.T) {
	fields := NewFields().WithOperation(OpDelete).WithTrip("t1", "").WithExpense("e1", 1500, "Food")
	if _, ok := fields[FieldPlaceID]; ok {
		t.Fatalf("empty place id must not be recorded")
	}
	if len(fields.ToSlice()) != 2*len(fields) {
		t.Fatalf("unexpected slice length")
	}
}
