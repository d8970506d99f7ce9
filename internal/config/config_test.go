package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 7710 || cfg.Server.Host != "127.0.0.1" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.LCU.PollInterval != 2*time.Second {
		t.Errorf("poll_interval = %v, want 2s", cfg.LCU.PollInterval)
	}
	if cfg.LCU.ReconnectDelay != 3*time.Second {
		t.Errorf("reconnect_delay = %v, want 3s", cfg.LCU.ReconnectDelay)
	}
	if cfg.WebAPI.BaseURL != "https://midorfeed.gg" {
		t.Errorf("base_url = %q", cfg.WebAPI.BaseURL)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: 9000
lcu:
  poll_interval: 500ms
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.LCU.PollInterval != 500*time.Millisecond {
		t.Errorf("poll_interval = %v, want 500ms", cfg.LCU.PollInterval)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("host = %q, want default", cfg.Server.Host)
	}
	if cfg.LCU.ProbeTimeout != 2*time.Second {
		t.Errorf("probe_timeout = %v, want default 2s", cfg.LCU.ProbeTimeout)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load should fail on malformed yaml")
	}
}

func TestEnvOverridesWebAPIURL(t *testing.T) {
	t.Setenv("COMPANION_WEB_API_URL", "http://localhost:4000")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WebAPI.BaseURL != "http://localhost:4000" {
		t.Errorf("base_url = %q, want env override", cfg.WebAPI.BaseURL)
	}
}
