package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LNK_CONNECTORS_FILE", "")
	t.Setenv("LNK_HTTP_TIMEOUT_SECONDS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ConnectorsFile != "./configs/connectors.yaml" {
		t.Fatalf("unexpected default connectors_file: %s", cfg.ConnectorsFile)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Fatalf("unexpected default http timeout: %v", cfg.HTTPTimeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LNK_CONNECTORS_FILE", "/etc/lnk/connectors.json")
	t.Setenv("LNK_HTTP_TIMEOUT_SECONDS", "3")
	t.Setenv("LNK_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ConnectorsFile != "/etc/lnk/connectors.json" {
		t.Fatalf("unexpected connectors_file: %s", cfg.ConnectorsFile)
	}
	if cfg.HTTPTimeout != 3*time.Second {
		t.Fatalf("unexpected http timeout: %v", cfg.HTTPTimeout)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
	if cfg.AppName != "lnk" {
		t.Fatalf("unexpected app name default: %s", cfg.AppName)
	}
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	t.Setenv("LNK_CONNECTORS_FILE", "connectors.yaml")
	t.Setenv("LNK_HTTP_TIMEOUT_SECONDS", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero timeout")
	}
}
