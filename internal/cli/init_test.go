package cli

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"fintrack/internal/config"
)

func TestSetupLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&buf, slog.LevelWarn)
	logger.Info("hidden")
	slog.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestNewSessionManagerStatic(t *testing.T) {
	sm, err := NewSessionManager(context.Background(), &config.Config{AuthMode: "static", AuthStaticUsers: "demo"})
	if err != nil {
		t.Fatal(err)
	}
	if u, err := sm.Verify(context.Background(), "demo"); err != nil || u.ID != "demo" {
		t.Fatalf("got %+v, %v", u, err)
	}
}

func TestConnectAMQPDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&buf, slog.LevelInfo)
	if c := ConnectAMQP(logger, &config.Config{}); c != nil {
		t.Fatal("expected nil client without URL")
	}
}
