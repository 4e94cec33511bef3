package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath             string `json:"db_path"`
	WebEnabled         bool   `json:"web_enabled"`
	WebPort            int    `json:"web_port"`
	ExportDir          string `json:"export_dir"`
	LogPath            string `json:"log_path"`
	MaxPhotoWidth      int    `json:"max_photo_width"`
	PhotoQuality       int    `json:"photo_quality"`
	FileSizeWarning    int64  `json:"file_size_warning"`
	StorageQuota       int64  `json:"storage_quota"`
	CelebrationDelayMs int    `json:"celebration_delay_ms"`
}

func Default() Config {
	return Config{
		WebPort:            8080,
		MaxPhotoWidth:      800,
		PhotoQuality:       70,
		FileSizeWarning:    2 * 1024 * 1024,
		StorageQuota:       5 * 1024 * 1024,
		CelebrationDelayMs: 500,
	}
}

func (c Config) CelebrationDelay() time.Duration {
	return time.Duration(c.CelebrationDelayMs) * time.Millisecond
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "riel", "config.json"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func Load(path string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return Config{}, err
	}

	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	config.fillDefaults()
	return config, nil
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// Resolve loads the config file at path, applies overrides and saves the
// result. Environment overrides are applied after saving so they only last
// for this run; overrides runs again afterwards so flags still win.
func Resolve(path, envFile string, overrides func(*Config)) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return Config{}, err
	}
	if overrides != nil {
		overrides(&cfg)
	}
	if err := Save(path, cfg); err != nil {
		return Config{}, err
	}
	if err := ApplyEnv(&cfg, envFile); err != nil {
		return Config{}, err
	}
	if overrides != nil {
		overrides(&cfg)
	}
	return cfg, nil
}

// ApplyEnv loads envFile (if present) and lets RIEL_* variables override cfg.
func ApplyEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg.DBPath = getEnv("RIEL_DB_PATH", cfg.DBPath)
	cfg.ExportDir = getEnv("RIEL_EXPORT_DIR", cfg.ExportDir)
	cfg.LogPath = getEnv("RIEL_LOG_PATH", cfg.LogPath)
	cfg.WebEnabled = getEnvAsBool("RIEL_WEB_ENABLED", cfg.WebEnabled)
	cfg.WebPort = getEnvAsInt("RIEL_WEB_PORT", cfg.WebPort)
	cfg.StorageQuota = int64(getEnvAsInt("RIEL_STORAGE_QUOTA", int(cfg.StorageQuota)))
	return nil
}

func (c *Config) fillDefaults() {
	defaults := Default()
	if c.WebPort == 0 {
		c.WebPort = defaults.WebPort
	}
	if c.MaxPhotoWidth <= 0 {
		c.MaxPhotoWidth = defaults.MaxPhotoWidth
	}
	if c.PhotoQuality <= 0 || c.PhotoQuality > 100 {
		c.PhotoQuality = defaults.PhotoQuality
	}
	if c.FileSizeWarning <= 0 {
		c.FileSizeWarning = defaults.FileSizeWarning
	}
	if c.StorageQuota < 0 {
		c.StorageQuota = defaults.StorageQuota
	}
	if c.CelebrationDelayMs < 0 {
		c.CelebrationDelayMs = defaults.CelebrationDelayMs
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		return value
	}
	return fallback
}
