package observability

import (
	"context"
	"testing"
)

func TestNewNoOpLogger(t *testing.T) {
	logger := NewNoOpLogger()
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	if !logger.IsHealthy() {
		t.Fatal("expected noop logger to be healthy")
	}
	if logger.WithStack("s").WithStage("dev").WithComponent("c") != logger {
		t.Fatal("expected noop scoping to return the same logger")
	}
	if err := logger.Flush(context.Background()); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

func TestTestLogger_Basics(t *testing.T) {
	logger := NewTestLogger()
	if logger == nil || !logger.IsHealthy() {
		t.Fatal("expected healthy test logger")
	}

	scoped := logger.WithStack("orders-api-live").WithStage("live").WithComponent("assembler").WithField("k", "v")
	scoped.Info("hello", map[string]any{"x": "y"})

	entries := logger.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Level != "info" || entries[0].Message != "hello" {
		t.Fatalf("unexpected entry: %#v", entries[0])
	}
	if entries[0].Stack != "orders-api-live" || entries[0].Stage != "live" || entries[0].Component != "assembler" {
		t.Fatalf("unexpected scope: %#v", entries[0])
	}
	if entries[0].Fields["k"] != "v" || entries[0].Fields["x"] != "y" {
		t.Fatalf("expected fields to be present, got %#v", entries[0].Fields)
	}

	if stats := logger.GetStats(); stats.EntriesLogged != 1 || !stats.LastFlush.IsZero() {
		t.Fatalf("unexpected stats before flush: %#v", stats)
	}
	if err := logger.Flush(context.Background()); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	stats := logger.GetStats()
	if stats.FlushCount != 1 || stats.LastFlush.IsZero() {
		t.Fatalf("unexpected stats after flush: %#v", stats)
	}

	if err := logger.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if logger.IsHealthy() {
		t.Fatal("expected logger to be unhealthy after close")
	}
	logger.Info("dropped")
	if got := len(logger.Entries()); got != 1 {
		t.Fatalf("expected closed logger to drop entries, got %d", got)
	}
}

func TestTestLogger_SanitizesMessagesAndFields(t *testing.T) {
	logger := NewTestLogger()
	logger.Warn("line\r\nbreak", map[string]any{"account": "123456789012", "aws_session_token": "abc"})

	entry := logger.Entries()[0]
	if entry.Message != "linebreak" {
		t.Fatalf("expected sanitized message, got %q", entry.Message)
	}
	if entry.Fields["account"] != "********9012" {
		t.Fatalf("expected masked account, got %#v", entry.Fields["account"])
	}
	if entry.Fields["aws_session_token"] != "[REDACTED]" {
		t.Fatalf("expected redacted token, got %#v", entry.Fields["aws_session_token"])
	}
	if got := logger.Messages(); len(got) != 1 || got[0] != "linebreak" {
		t.Fatalf("unexpected messages: %#v", got)
	}
}

func TestTestLogger_FlushHonorsContextCancel(t *testing.T) {
	logger := NewTestLogger()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := logger.Flush(ctx); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
