package logger

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerForwardsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := Wrap(zap.New(core))

	l.Info("cache hit", map[string]interface{}{"key": "abc"})
	l.Error("history append failed", errors.New("disk full"), map[string]interface{}{"id": "r1"})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ContextMap()["key"] != "abc" {
		t.Fatalf("missing key field: %v", entries[0].ContextMap())
	}
	ctx := entries[1].ContextMap()
	if ctx["error"] != "disk full" || ctx["id"] != "r1" {
		t.Fatalf("unexpected error entry fields: %v", ctx)
	}
}

func TestNopLoggerAcceptsNilFields(t *testing.T) {
	l := NewNop()
	l.Debug("noop", nil)
	l.Warn("noop", nil)
	l.Error("noop", nil, nil)
}
