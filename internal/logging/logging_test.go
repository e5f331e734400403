package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/quintusl/socksd/internal/config"
)

func TestSetupConsoleIsDefaultSink(t *testing.T) {
	closer, err := Setup(config.LoggingConfig{Level: "info"})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer closer.Close()

	if !slog.Default().Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info level to be enabled")
	}
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug level to be disabled at info level")
	}
}

func TestSetupFileSinkCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "socksd.log")

	closer, err := Setup(config.LoggingConfig{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer closer.Close()

	slog.Info("test message")

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected log file to exist: %v", err)
	}
}

func TestSetupUnknownLevelDefaultsToInfo(t *testing.T) {
	closer, err := Setup(config.LoggingConfig{Level: "nonsense"})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer closer.Close()

	if !slog.Default().Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected fallback to info level")
	}
}
