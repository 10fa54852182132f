package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CARBON_CONFIG", "PORT", "CARBON_API_BASE_URL", "CARBON_API_TIMEOUT",
		"CARBON_SESSION_STORE", "CARBON_SESSION_PATH", "CARBON_CSRF_KEY", "CARBON_SECURE_COOKIES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Backend.BaseURL != "http://localhost:5000" || cfg.Backend.Timeout != 30*time.Second {
		t.Fatalf("unexpected backend: %+v", cfg.Backend)
	}
	if cfg.Session.Store != SessionStoreSQLite || cfg.Session.Path != "carbon-session.db" {
		t.Fatalf("unexpected session: %+v", cfg.Session)
	}
	if len(cfg.Security.CSRFKey) != 32 || cfg.Security.SecureCookies {
		t.Fatalf("unexpected security: %+v", cfg.Security)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "carbon.yaml")
	content := strings.Join([]string{
		"server:",
		"  port: \"9000\"",
		"backend:",
		"  base_url: http://backend.internal:5000/",
		"  timeout_seconds: 5",
		"session:",
		"  store: memory",
		"security:",
		"  csrf_key: " + strings.Repeat("ab", 32),
		"  secure_cookies: true",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CARBON_CONFIG", path)
	t.Setenv("PORT", "127.0.0.1:7000")
	t.Setenv("CARBON_API_TIMEOUT", "12")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:7000" {
		t.Fatalf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Backend.BaseURL != "http://backend.internal:5000" || cfg.Backend.Timeout != 12*time.Second {
		t.Fatalf("unexpected backend: %+v", cfg.Backend)
	}
	if cfg.Session.Store != SessionStoreMemory {
		t.Fatalf("Store = %q", cfg.Session.Store)
	}
	if len(cfg.Security.CSRFKey) != 32 || cfg.Security.CSRFKey[0] != 0xab || !cfg.Security.SecureCookies {
		t.Fatalf("unexpected security: %+v", cfg.Security)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":                  "80 80",
		"CARBON_API_TIMEOUT":    "soon",
		"CARBON_SESSION_STORE":  "redis",
		"CARBON_CSRF_KEY":       "short",
		"CARBON_SECURE_COOKIES": "maybe",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}

func TestMissingConfigFileFails(t *testing.T) {
	clearEnv(t)
	t.Setenv("CARBON_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
