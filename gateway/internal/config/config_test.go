package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_WithDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Hub.URL != "http://localhost:8080" {
		t.Errorf("Hub.URL = %q, want http://localhost:8080", cfg.Hub.URL)
	}
	if cfg.Hub.DefaultTenant != "demo" {
		t.Errorf("Hub.DefaultTenant = %q, want demo", cfg.Hub.DefaultTenant)
	}
	if cfg.Hub.AuthMode != AuthModeBearer {
		t.Errorf("Hub.AuthMode = %q, want bearer", cfg.Hub.AuthMode)
	}
	if cfg.Hub.Timeout != 30*time.Second {
		t.Errorf("Hub.Timeout = %v, want 30s", cfg.Hub.Timeout)
	}
	if cfg.Hub.ReadTimeout != 120*time.Second {
		t.Errorf("Hub.ReadTimeout = %v, want 120s", cfg.Hub.ReadTimeout)
	}
	if cfg.Hub.MaxIdleConnsPerHost != 32 {
		t.Errorf("Hub.MaxIdleConnsPerHost = %d, want 32", cfg.Hub.MaxIdleConnsPerHost)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Server.WriteTimeout != 150*time.Second {
		t.Errorf("Server.WriteTimeout = %v, want 150s", cfg.Server.WriteTimeout)
	}
	if cfg.Database.Migrations != "file://gateway/migrations" {
		t.Errorf("Database.Migrations = %q", cfg.Database.Migrations)
	}
	if cfg.NATS.Subject != "lotuspetal.sourcing_events.upsert" {
		t.Errorf("NATS.Subject = %q", cfg.NATS.Subject)
	}
	if cfg.NATS.Queue != "gateway-events" {
		t.Errorf("NATS.Queue = %q", cfg.NATS.Queue)
	}
	if cfg.Redis.Enabled || cfg.NATS.Enabled {
		t.Error("redis and nats should be disabled by default")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json", cfg.Logging)
	}
	if cfg.Addr() != ":8000" {
		t.Errorf("Addr() = %q, want :8000", cfg.Addr())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GATEWAY_HUB_URL", "https://hub.internal/api/")
	t.Setenv("GATEWAY_HUB_TOKEN", "s3cret")
	t.Setenv("GATEWAY_HUB_AUTH_MODE", "JWT")
	t.Setenv("GATEWAY_HUB_READ_TIMEOUT", "45s")
	t.Setenv("GATEWAY_SERVER_PORT", "9001")
	t.Setenv("GATEWAY_SERVER_CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Hub.URL != "https://hub.internal/api" {
		t.Errorf("Hub.URL = %q, trailing slash should be trimmed", cfg.Hub.URL)
	}
	if cfg.Hub.Token != "s3cret" {
		t.Errorf("Hub.Token = %q", cfg.Hub.Token)
	}
	if cfg.Hub.AuthMode != AuthModeJWT {
		t.Errorf("Hub.AuthMode = %q, want jwt", cfg.Hub.AuthMode)
	}
	if cfg.Hub.ReadTimeout != 45*time.Second {
		t.Errorf("Hub.ReadTimeout = %v, want 45s", cfg.Hub.ReadTimeout)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("Server.Port = %d, want 9001", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 2 {
		t.Errorf("Server.CORSOrigins = %v, want 2 entries", cfg.Server.CORSOrigins)
	}
}

func TestLoad_LegacyEnvNames(t *testing.T) {
	t.Setenv("INTEGRATION_HUB_BASE", "http://legacy-hub:9000")
	t.Setenv("HUB_SHARED_TOKEN", "legacy-token")
	t.Setenv("DEMO_TENANT_ID", "acme")
	t.Setenv("HUB_TIMEOUT", "10s")
	t.Setenv("LP_DB_URL", "postgres://lp@db/lp")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Hub.URL != "http://legacy-hub:9000" {
		t.Errorf("Hub.URL = %q", cfg.Hub.URL)
	}
	if cfg.Hub.Token != "legacy-token" {
		t.Errorf("Hub.Token = %q", cfg.Hub.Token)
	}
	if cfg.Hub.DefaultTenant != "acme" {
		t.Errorf("Hub.DefaultTenant = %q", cfg.Hub.DefaultTenant)
	}
	if cfg.Hub.Timeout != 10*time.Second {
		t.Errorf("Hub.Timeout = %v", cfg.Hub.Timeout)
	}
	if cfg.Database.URL != "postgres://lp@db/lp" {
		t.Errorf("Database.URL = %q", cfg.Database.URL)
	}
}

func TestLoad_PrefixedEnvBeatsLegacy(t *testing.T) {
	t.Setenv("GATEWAY_HUB_URL", "http://new-hub")
	t.Setenv("HUB_URL", "http://old-hub")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Hub.URL != "http://new-hub" {
		t.Errorf("Hub.URL = %q, want http://new-hub", cfg.Hub.URL)
	}
}

func TestLoad_WithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "gateway.yaml")

	configContent := `
hub:
  url: http://hub.yaml:8080
  default_tenant: yaml-tenant
  auth_mode: internal
  timeout: 5s
server:
  port: 8123
redis:
  enabled: true
  url: redis://localhost:6379/0
logging:
  level: debug
  format: text
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Hub.URL != "http://hub.yaml:8080" {
		t.Errorf("Hub.URL = %q", cfg.Hub.URL)
	}
	if cfg.Hub.DefaultTenant != "yaml-tenant" {
		t.Errorf("Hub.DefaultTenant = %q", cfg.Hub.DefaultTenant)
	}
	if cfg.Hub.AuthMode != AuthModeInternal {
		t.Errorf("Hub.AuthMode = %q", cfg.Hub.AuthMode)
	}
	if cfg.Hub.Timeout != 5*time.Second {
		t.Errorf("Hub.Timeout = %v", cfg.Hub.Timeout)
	}
	if cfg.Hub.ReadTimeout != 120*time.Second {
		t.Errorf("Hub.ReadTimeout = %v, default should survive", cfg.Hub.ReadTimeout)
	}
	if cfg.Server.Port != 8123 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if !cfg.Redis.Enabled {
		t.Error("Redis.Enabled should be true")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %q", cfg.Logging.Format)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for explicit missing config file")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "empty default tenant",
			env:     map[string]string{"GATEWAY_HUB_DEFAULT_TENANT": "   "},
			wantErr: "hub.default_tenant",
		},
		{
			name:    "relative hub url",
			env:     map[string]string{"GATEWAY_HUB_URL": "hub.local"},
			wantErr: "hub.url",
		},
		{
			name:    "unknown auth mode",
			env:     map[string]string{"GATEWAY_HUB_AUTH_MODE": "basic"},
			wantErr: "hub.auth_mode",
		},
		{
			name:    "non-positive timeout",
			env:     map[string]string{"GATEWAY_HUB_TIMEOUT": "0s"},
			wantErr: "hub.timeout",
		},
		{
			name:    "redis enabled without url",
			env:     map[string]string{"GATEWAY_REDIS_ENABLED": "true"},
			wantErr: "redis.url",
		},
		{
			name:    "nats enabled without url",
			env:     map[string]string{"GATEWAY_NATS_ENABLED": "true"},
			wantErr: "nats.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}
