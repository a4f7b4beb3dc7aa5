package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("expected a logger for nil input")
	}

	l := NewLogger(false)
	if OrNop(l) != l {
		t.Fatal("expected the same logger back")
	}
}

func TestWithKeepsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("stage", "split").Infow("done", "count", 3)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["stage"] != "split" {
		t.Errorf("expected stage=split, got %v", ctx["stage"])
	}
	if ctx["count"] != int64(3) {
		t.Errorf("expected count=3, got %v (%T)", ctx["count"], ctx["count"])
	}
}
