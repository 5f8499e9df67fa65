package logging

import (
	"errors"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_EmitsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewLoggerFromCore(core)

	logger.Info("verification complete",
		String("source", "courtlistener"),
		Int("attempts", 2),
		Bool("verified", true),
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Message != "verification complete" {
		t.Errorf("Message = %q", e.Message)
	}
	ctx := e.ContextMap()
	if ctx["source"] != "courtlistener" {
		t.Errorf("source = %v", ctx["source"])
	}
	if ctx["attempts"] != int64(2) {
		t.Errorf("attempts = %v", ctx["attempts"])
	}
	if ctx["verified"] != true {
		t.Errorf("verified = %v", ctx["verified"])
	}
}

func TestWith_DoesNotMutateParent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	parent := NewLoggerFromCore(core)
	child := parent.With(String("component", "cluster"))

	parent.Info("parent entry")
	child.Info("child entry")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if _, ok := entries[0].ContextMap()["component"]; ok {
		t.Error("parent entry should not carry the child's field")
	}
	if entries[1].ContextMap()["component"] != "cluster" {
		t.Error("child entry should carry the bound field")
	}
}

func TestNamed_AppendsLoggerName(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewLoggerFromCore(core).Named("pipeline").Named("verify")

	logger.Info("x")
	if got := logs.All()[0].LoggerName; got != "pipeline.verify" {
		t.Errorf("LoggerName = %q, want %q", got, "pipeline.verify")
	}
}

func TestErr_NilSafe(t *testing.T) {
	f := Err(nil)
	if f.Key != "error" || f.Value != "<nil>" {
		t.Errorf("Err(nil) = %+v", f)
	}
	f = Err(errors.New("boom"))
	if f.Key != "error" {
		t.Errorf("Err key = %q", f.Key)
	}
}

func TestNewLogger_Defaults(t *testing.T) {
	logger, err := NewLogger(Config{})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	// Must not panic with no fields and an unnamed logger.
	logger.Info("startup")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
