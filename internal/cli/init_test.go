package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"finledger/internal/config"
	applog "finledger/internal/log"
)

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("PORT", "9090")
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" || cfg.DataBackend != "memory" {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	t.Setenv("DATA_BACKEND", "sheets")
	if _, err := LoadAndValidateConfig(); err == nil {
		t.Fatal("expected validation error for unknown backend")
	}
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, applog.ComponentCLI)
	if logger.Component() != applog.ComponentCLI {
		t.Fatalf("component = %q", logger.Component())
	}
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("default logger should have debug enabled")
	}
}

func TestOpenBackend(t *testing.T) {
	cfg := &config.Config{DataBackend: "sqlite", SQLiteDBPath: filepath.Join(t.TempDir(), "ledger.db")}
	res, err := OpenBackend(context.Background(), cfg, slog.Default())
	if err != nil {
		t.Fatalf("OpenBackend: %v", err)
	}
	if res.Backend.Forwarder != nil {
		t.Fatal("forwarder must be nil without AMQP_URL")
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if _, err := OpenBackend(context.Background(), &config.Config{DataBackend: "nope"}, slog.Default()); err == nil {
		t.Fatal("expected error for invalid backend")
	}
}
