package main

import (
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/chsync/internal/app"
)

func TestSetupLogger(t *testing.T) {
	oldLevel := log.GetLevel()
	defer log.SetLevel(oldLevel)

	setupLogger()

	if log.GetLevel() != log.InfoLevel {
		t.Fatalf("unexpected log level: %v", log.GetLevel())
	}
}

func TestLoadConfigForService(t *testing.T) {
	t.Setenv("CHSYNC_METRICS_ADDR", "127.0.0.1:19090")
	t.Setenv("CHSYNC_STORAGE_TYPE", "memory")

	cfg, err := app.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Service.MetricsAddr != "127.0.0.1:19090" {
		t.Fatalf("metrics addr: got %q", cfg.Service.MetricsAddr)
	}
	if cfg.Storage.Type != "memory" {
		t.Fatalf("storage type: got %q", cfg.Storage.Type)
	}
}
