package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Environments(t *testing.T) {
	for _, env := range []string{"prod", "local", "dev"} {
		if _, err := NewLogger(env, Options{}); err != nil {
			t.Errorf("%s: unexpected error: %v", env, err)
		}
	}
	if _, err := NewLogger("staging", Options{}); err == nil {
		t.Error("expected error for unknown env")
	}
}

func TestNewLogger_LevelOverride(t *testing.T) {
	l, err := NewLogger("prod", Options{Level: "debug"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !l.Core().Enabled(zap.DebugLevel) {
		t.Error("expected debug enabled")
	}
	if _, err := NewLogger("prod", Options{Level: "loud"}); err == nil {
		t.Error("expected error for bad level")
	}

	l, err = NewLogger("local", Options{Level: "warn"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Core().Enabled(zap.InfoLevel) {
		t.Error("expected info disabled at warn")
	}
}

func TestNewLogger_Format(t *testing.T) {
	for _, format := range []string{"", "json", "console"} {
		if _, err := NewLogger("dev", Options{Format: format}); err != nil {
			t.Errorf("format %q: unexpected error: %v", format, err)
		}
	}
	if _, err := NewLogger("dev", Options{Format: "logfmt"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := zap.New(core)

	FromContext(context.Background()).Info("dropped")
	FromContext(context.Background(), l).Info("fallback")

	ctx := With(ContextWithLogger(context.Background(), l), zap.String("request_id", "abc"))
	FromContext(ctx).Info("carried")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].ContextMap()["request_id"] != "abc" {
		t.Errorf("missing request_id: %v", entries[1].ContextMap())
	}
}
