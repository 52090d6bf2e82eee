package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":8000" {
		t.Errorf("server.addr: expected :8000, got %s", cfg.Server.Addr)
	}
	if cfg.Cache.Backend != "fs" {
		t.Errorf("cache.backend: expected fs, got %s", cfg.Cache.Backend)
	}
	if cfg.Cache.MemoCapacity != 512 {
		t.Errorf("cache.memo_capacity: expected 512, got %d", cfg.Cache.MemoCapacity)
	}
	if cfg.Cache.TTL.Races != 7*24*time.Hour {
		t.Errorf("cache.ttl.races: expected 168h, got %v", cfg.Cache.TTL.Races)
	}
	if cfg.Cache.TTL.Sessions != 2*24*time.Hour {
		t.Errorf("cache.ttl.sessions: expected 48h, got %v", cfg.Cache.TTL.Sessions)
	}
	if cfg.Provider.TelemetryPointLimit != 200 {
		t.Errorf("provider.telemetry_point_limit: expected 200, got %d", cfg.Provider.TelemetryPointLimit)
	}
	if !cfg.Warmup.Enabled {
		t.Error("warmup.enabled: expected true")
	}
	if cfg.Warmup.Pacing != time.Second {
		t.Errorf("warmup.pacing: expected 1s, got %v", cfg.Warmup.Pacing)
	}
	if len(cfg.Warmup.Years) != 5 {
		t.Errorf("warmup.years: expected 5 entries, got %d", len(cfg.Warmup.Years))
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "apexview.yaml")
	body := `
server:
  addr: ":9090"
cache:
  backend: bolt
  dir: /var/cache/apexview
  memo_capacity: 64
  ttl:
    telemetry: 6h
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("server.addr: expected :9090, got %s", cfg.Server.Addr)
	}
	if cfg.Cache.Backend != "bolt" {
		t.Errorf("cache.backend: expected bolt, got %s", cfg.Cache.Backend)
	}
	if cfg.Cache.MemoCapacity != 64 {
		t.Errorf("cache.memo_capacity: expected 64, got %d", cfg.Cache.MemoCapacity)
	}
	if cfg.Cache.TTL.Telemetry != 6*time.Hour {
		t.Errorf("cache.ttl.telemetry: expected 6h, got %v", cfg.Cache.TTL.Telemetry)
	}
	// Untouched keys keep their defaults.
	if cfg.Cache.TTL.Races != 7*24*time.Hour {
		t.Errorf("cache.ttl.races: expected default 168h, got %v", cfg.Cache.TTL.Races)
	}
}

func TestValidate_RejectsUnknownBackend(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg.Cache.Backend = "sqlite"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown backend")
	}
}

func TestValidate_RejectsNonPositiveValues(t *testing.T) {
	base, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero memo capacity", func(c *Config) { c.Cache.MemoCapacity = 0 }},
		{"zero races ttl", func(c *Config) { c.Cache.TTL.Races = 0 }},
		{"negative telemetry ttl", func(c *Config) { c.Cache.TTL.Telemetry = -time.Hour }},
		{"empty base url", func(c *Config) { c.Provider.BaseURL = "" }},
		{"zero point limit", func(c *Config) { c.Provider.TelemetryPointLimit = 0 }},
		{"zero pacing while enabled", func(c *Config) { c.Warmup.Pacing = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := *base
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
