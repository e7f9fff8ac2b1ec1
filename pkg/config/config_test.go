package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
provider:
  name: mock
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("default redis addr = %q", cfg.Redis.Addr)
	}
	if cfg.Redis.TTL != 24*time.Hour {
		t.Errorf("default ttl = %v", cfg.Redis.TTL)
	}
	if cfg.Server.RateLimit != 50 || cfg.Server.RateBurst != 100 {
		t.Errorf("default rate limit = %v/%v", cfg.Server.RateLimit, cfg.Server.RateBurst)
	}
}

func TestLoadConfigFullFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  rate_limit: 10
  rate_burst: 20
observability_port: 9091
provider:
  name: mock
  reply_model: gpt-4o
detection:
  threshold: 0.8
redis:
  addr: redis.internal:6379
  ttl: 1h
postgres_dsn: postgres://user:pass@db/trapline
tracing:
  enabled: true
  exporter: otlp
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != 9090 || cfg.ObservabilityPort != 9091 {
		t.Errorf("ports = %d/%d", cfg.Server.Port, cfg.ObservabilityPort)
	}
	if cfg.Detection.Threshold != 0.8 {
		t.Errorf("threshold = %v", cfg.Detection.Threshold)
	}
	if cfg.Redis.TTL != time.Hour {
		t.Errorf("ttl = %v", cfg.Redis.TTL)
	}
	if cfg.Tracing.ExporterType != "otlp" || !cfg.Tracing.Enabled {
		t.Errorf("tracing = %+v", cfg.Tracing)
	}
}

func TestLoadConfigEnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("POSTGRES_DSN", "postgres://env")

	path := writeConfig(t, `
provider:
  name: openai
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Provider.APIKey != "sk-test" {
		t.Errorf("api key not taken from env: %q", cfg.Provider.APIKey)
	}
	if cfg.PostgresDSN != "postgres://env" {
		t.Errorf("dsn not taken from env: %q", cfg.PostgresDSN)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GCP_PROJECT", "")

	cases := []struct {
		name    string
		content string
	}{
		{"openai without key", "provider:\n  name: openai\n"},
		{"vertexai without project", "provider:\n  name: vertexai\n"},
		{"unknown provider", "provider:\n  name: bedrock\n"},
		{"threshold out of range", "provider:\n  name: mock\ndetection:\n  threshold: 1.5\n"},
	}
	for _, tc := range cases {
		path := writeConfig(t, tc.content)
		if _, err := LoadConfig(path); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
