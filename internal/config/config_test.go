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
	for _, k := range []string{
		"HOST", "PORT", envConfigPath,
		"MCP_REMOTE_FETCH_MAX_LENGTH", "MCP_REMOTE_FETCH_TIMEOUT",
		"MCP_REMOTE_STORE", "MCP_REMOTE_STORE_PATH",
		"MCP_REMOTE_LOG", "MCP_REMOTE_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Fetch.MaxContentLength != 5000 {
		t.Errorf("max content length = %d, want 5000", cfg.Fetch.MaxContentLength)
	}
	if cfg.Fetch.Timeout != 30*time.Second {
		t.Errorf("timeout = %v", cfg.Fetch.Timeout)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("backend = %q", cfg.Store.Backend)
	}
	if got := cfg.Addr(); got != ":3000" {
		t.Errorf("Addr() = %q, want :3000", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
server:
  host: 127.0.0.1
  port: 8080
fetch:
  max_content_length: 10000
  timeout: 5s
store:
  backend: bolt
  path: /tmp/scratch.db
`)
	t.Setenv("PORT", "9090")
	t.Setenv("MCP_REMOTE_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want env override 9090", cfg.Server.Port)
	}
	if cfg.Fetch.MaxContentLength != 10000 {
		t.Errorf("max content length = %d", cfg.Fetch.MaxContentLength)
	}
	if cfg.Fetch.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", cfg.Fetch.Timeout)
	}
	if cfg.Store.Backend != "bolt" || cfg.Store.Path != "/tmp/scratch.db" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if got := cfg.Addr(); got != "127.0.0.1:9090" {
		t.Errorf("Addr() = %q", got)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadBadPortEnv(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "http")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "PORT") {
		t.Fatalf("expected PORT error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, false},
		{"negative length", func(c *Config) { c.Fetch.MaxContentLength = -1 }, false},
		{"bolt without path", func(c *Config) { c.Store.Backend = "bolt" }, false},
		{"bolt with path", func(c *Config) { c.Store.Backend = "bolt"; c.Store.Path = "x.db" }, true},
		{"unknown backend", func(c *Config) { c.Store.Backend = "redis" }, false},
	}
	for _, tc := range cases {
		cfg := &Config{}
		applyDefaults(cfg)
		tc.mutate(cfg)
		err := cfg.Validate()
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}
