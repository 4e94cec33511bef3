package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WebPort != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.WebPort)
	}
	if cfg.MaxPhotoWidth != 800 || cfg.PhotoQuality != 70 {
		t.Fatalf("unexpected photo defaults: %+v", cfg)
	}
	if cfg.CelebrationDelay() != 500*time.Millisecond {
		t.Fatalf("expected 500ms celebration delay, got %s", cfg.CelebrationDelay())
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.DBPath = "/tmp/riel.db"
	cfg.WebEnabled = true
	cfg.WebPort = 9090

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != cfg {
		t.Fatalf("expected %+v, got %+v", cfg, loaded)
	}
}

func TestLoadFillsZeroValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"db_path":"x.db","photo_quality":0}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "x.db" {
		t.Fatalf("expected db path from file, got %q", cfg.DBPath)
	}
	if cfg.PhotoQuality != 70 {
		t.Fatalf("expected photo quality default, got %d", cfg.PhotoQuality)
	}
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("RIEL_EXPORT_DIR=/srv/exports\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("RIEL_WEB_PORT", "9191")
	t.Setenv("RIEL_WEB_ENABLED", "true")
	t.Setenv("RIEL_STORAGE_QUOTA", "1024")
	t.Cleanup(func() { _ = os.Unsetenv("RIEL_EXPORT_DIR") })

	cfg := Default()
	if err := ApplyEnv(&cfg, envFile); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.WebPort != 9191 || !cfg.WebEnabled {
		t.Fatalf("expected web overrides, got %+v", cfg)
	}
	if cfg.ExportDir != "/srv/exports" {
		t.Fatalf("expected export dir from .env, got %q", cfg.ExportDir)
	}
	if cfg.StorageQuota != 1024 {
		t.Fatalf("expected quota 1024, got %d", cfg.StorageQuota)
	}
}

func TestResolveDoesNotPersistEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("RIEL_STORAGE_QUOTA", "0")
	t.Setenv("RIEL_WEB_PORT", "9191")

	cfg, err := Resolve(path, "", func(cfg *Config) {
		cfg.WebPort = 7070
		if cfg.DBPath == "" {
			cfg.DBPath = "riel.db"
		}
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.StorageQuota != 0 {
		t.Fatalf("expected env quota for this run, got %d", cfg.StorageQuota)
	}
	if cfg.WebPort != 7070 {
		t.Fatalf("expected flag port to win over env, got %d", cfg.WebPort)
	}

	saved, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if saved.StorageQuota != Default().StorageQuota {
		t.Fatalf("env quota leaked into the saved config: %d", saved.StorageQuota)
	}
	if saved.WebPort != 7070 || saved.DBPath != "riel.db" {
		t.Fatalf("expected flag overrides to be saved, got %+v", saved)
	}
}

func TestApplyEnvMissingFileIsIgnored(t *testing.T) {
	cfg := Default()
	if err := ApplyEnv(&cfg, filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("expected missing env file to be ignored, got %v", err)
	}
}
