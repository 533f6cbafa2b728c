package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "apilot.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("APILOT_TEST_KEY", "secret-key")

	path := writeConfig(t, `{
		"server": {"port": 9090},
		"providers": [{"id": "main", "type": "openai", "api_key": "${APILOT_TEST_KEY}"}],
		"database": {"redis": {"url": "${APILOT_TEST_REDIS:redis://localhost:6379/0}"}}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Providers[0].APIKey != "secret-key" {
		t.Errorf("api_key = %q, env var not expanded", cfg.Providers[0].APIKey)
	}
	// Unset variable falls back to the default.
	if cfg.Database.Redis.URL != "redis://localhost:6379/0" {
		t.Errorf("redis url = %q", cfg.Database.Redis.URL)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{}`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d", cfg.Server.Port)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("default cache backend = %q", cfg.Cache.Backend)
	}
	if cfg.Corpus.Source != "builtin" {
		t.Errorf("default corpus source = %q", cfg.Corpus.Source)
	}
	if cfg.Matcher.HighThreshold != 0.8 {
		t.Errorf("default high threshold = %v", cfg.Matcher.HighThreshold)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/apilot.json"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	if _, err := Load(writeConfig(t, `{not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
