package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := []byte(`
server:
  port: 9090
database:
  driver: sqlite
  dsn: "file::memory:"
jwt:
  secret: from-file
drafts:
  debounce_ms: 250
`)
	if err := os.WriteFile(path, yaml, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BEY_JWT_SECRET", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.JWT.Secret != "from-env" {
		t.Errorf("secret = %q, want env override", cfg.JWT.Secret)
	}
	if cfg.Debounce() != 250*time.Millisecond {
		t.Errorf("debounce = %v", cfg.Debounce())
	}
	if cfg.TokenTTL() != 24*time.Hour {
		t.Errorf("token ttl = %v", cfg.TokenTTL())
	}
}

func TestLoad_MissingDSN(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("jwt:\n  secret: s\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BEY_DATABASE_DSN", "")

	if _, err := Load(path); err == nil {
		t.Fatal("Load without a DSN should fail")
	}
}

func TestDebounce_Default(t *testing.T) {
	var c Config
	if c.Debounce() != 500*time.Millisecond {
		t.Fatalf("default debounce = %v", c.Debounce())
	}
}
