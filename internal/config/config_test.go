package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdraft/internal/config"
)

func TestDefault(t *testing.T) {
	want := &config.Config{
		Store:   config.StoreConfig{Driver: "sqlite", Compress: true},
		Editor:  config.EditorConfig{Locale: "en", MaxBytes: 1048576},
		Logging: config.LoggingConfig{Level: "warn"},
	}
	if diff := cmp.Diff(want, config.Default()); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formdraft.yaml")
	data := "store:\n  driver: file\n  path: /tmp/drafts\neditor:\n  locale: fr\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Driver != "file" || cfg.Store.Path != "/tmp/drafts" || cfg.Editor.Locale != "fr" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Editor.MaxBytes != 1048576 || !cfg.Store.Compress {
		t.Fatalf("expected defaults to survive, got %+v", cfg)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Driver != config.DriverSQLite {
		t.Fatalf("expected default driver, got %q", cfg.Store.Driver)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("store: [unterminated"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		config.EnvStoreDriver: "MEMORY",
		config.EnvStorePath:   "/var/drafts",
		config.EnvLogLevel:    "debug",
		config.EnvLocale:      "de",
		config.EnvMaxBytes:    "2048",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := config.Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	want := &config.Config{
		Store:   config.StoreConfig{Driver: "memory", Path: "/var/drafts", Compress: true},
		Editor:  config.EditorConfig{Locale: "de", MaxBytes: 2048},
		Logging: config.LoggingConfig{Level: "debug"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}

	env[config.EnvMaxBytes] = "lots"
	if err := config.Default().ApplyEnv(lookup); err == nil {
		t.Fatal("expected invalid max bytes error")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv(config.EnvLocale, "it")
	path := filepath.Join(t.TempDir(), "formdraft.yaml")
	if err := os.WriteFile(path, []byte("editor:\n  locale: fr\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Editor.Locale != "it" {
		t.Fatalf("expected env override, got %q", cfg.Editor.Locale)
	}
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = "redis"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unknown driver error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(config.EnvLocale+"=pt\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(config.EnvLocale, "")
	os.Unsetenv(config.EnvLocale)

	if err := config.LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv(config.EnvLocale); got != "pt" {
		t.Fatalf("expected value from .env, got %q", got)
	}
}

func TestStorePath(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Path = "/explicit"
	if got, err := cfg.StorePath(); err != nil || got != "/explicit" {
		t.Fatalf("unexpected path %q (%v)", got, err)
	}
}
