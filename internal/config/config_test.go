package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEnvOnlyDefaults(t *testing.T) {
	cfg, err := Load("", true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Ingest.Timeout != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %s", cfg.Ingest.Timeout)
	}
	if cfg.Ingest.Retries != 2 {
		t.Fatalf("expected 2 retries, got %d", cfg.Ingest.Retries)
	}
	if cfg.Ingest.RetryDelay != time.Second {
		t.Fatalf("expected 1s retry delay, got %s", cfg.Ingest.RetryDelay)
	}
	if cfg.Ingest.DefaultTimestampFormat != "2006-01-02 15:04:05" {
		t.Fatalf("unexpected timestamp format %q", cfg.Ingest.DefaultTimestampFormat)
	}
	if cfg.Cache.Driver != "memory" {
		t.Fatalf("expected memory cache, got %q", cfg.Cache.Driver)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FFWS_INGEST_WORKERS", "9")
	t.Setenv("FFWS_DB_DSN", "postgres://ffws@localhost/ffws")
	t.Setenv("FFWS_INGEST_TIMEOUT", "5s")

	cfg, err := Load("", true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Ingest.Workers != 9 {
		t.Fatalf("expected 9 workers, got %d", cfg.Ingest.Workers)
	}
	if cfg.DB.DSN != "postgres://ffws@localhost/ffws" {
		t.Fatalf("unexpected dsn %q", cfg.DB.DSN)
	}
	if cfg.Ingest.Timeout != 5*time.Second {
		t.Fatalf("expected 5s, got %s", cfg.Ingest.Timeout)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("server:\n  http_addr: \":9090\"\ningest:\n  retries: 1\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.HTTPAddr != ":9090" {
		t.Fatalf("unexpected addr %q", cfg.Server.HTTPAddr)
	}
	if cfg.Ingest.Retries != 1 {
		t.Fatalf("expected 1 retry, got %d", cfg.Ingest.Retries)
	}
}

func TestValidate(t *testing.T) {
	base, err := Load("", true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Ingest.Workers = 0 }},
		{"negative retries", func(c *Config) { c.Ingest.Retries = -1 }},
		{"zero timeout", func(c *Config) { c.Ingest.Timeout = 0 }},
		{"redis without addr", func(c *Config) { c.Cache.Driver = "redis" }},
		{"unknown cache", func(c *Config) { c.Cache.Driver = "memcached" }},
		{"auth without secret", func(c *Config) { c.Auth.Enabled = true }},
		{"bad qos", func(c *Config) { c.MQTT.QoS = 3 }},
	}
	for _, tc := range cases {
		cfg := base
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadDotEnvIgnoresMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("FFWS_TEST_DOTENV=loaded\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("FFWS_TEST_DOTENV", "")
	os.Unsetenv("FFWS_TEST_DOTENV")
	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("FFWS_TEST_DOTENV"); got != "loaded" {
		t.Fatalf("expected dotenv value, got %q", got)
	}
}
