package recognizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const defaultConfigFile = "config.json"

// Environment variables overriding config.json.
const (
	EnvModel      = "GLYPHOCR_MODEL"
	EnvLabels     = "GLYPHOCR_LABELS"
	EnvOrtLibrary = "GLYPHOCR_ORT_LIBRARY"
	EnvBackends   = "GLYPHOCR_BACKENDS"
	EnvEngine     = "GLYPHOCR_ENGINE"
	EnvCacheDir   = "GLYPHOCR_CACHE_DIR"
)

// LoadConfig loads configuration from the given path or the default config.json.
// A missing file yields defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigFile
	}
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	if cfg.Classifier.CacheDir != "" {
		if err := os.MkdirAll(cfg.Classifier.CacheDir, 0o755); err != nil {
			return cfg, fmt.Errorf("create cache dir: %w", err)
		}
	}
	return cfg, nil
}

// SaveConfig persists configuration to disk.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = defaultConfigFile
	}
	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg.ApplyDefaults()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// LoadEnv reads .env style files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load env %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides classifier settings from GLYPHOCR_* variables.
func ApplyEnv(cfg *Config) {
	set := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(EnvModel, &cfg.Classifier.ModelPath)
	set(EnvLabels, &cfg.Classifier.LabelPath)
	set(EnvOrtLibrary, &cfg.Classifier.OrtLibrary)
	set(EnvEngine, &cfg.Classifier.Engine)
	set(EnvCacheDir, &cfg.Classifier.CacheDir)
	if v := strings.TrimSpace(os.Getenv(EnvBackends)); v != "" {
		var backends []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.ToLower(strings.TrimSpace(b)); b != "" {
				backends = append(backends, b)
			}
		}
		if len(backends) > 0 {
			cfg.Classifier.Backends = backends
		}
	}
}
