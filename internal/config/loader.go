package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Load reads a configuration file based on its extension and applies
// defaults to every field the file leaves unset.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// LoadOrDefault behaves like Load but returns Defaults() when path is empty.
func LoadOrDefault(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Defaults(), nil
	}
	return Load(path)
}

// ApplyEnv overrides fields from LOCALQA_* environment variables. getenv is
// usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("LOCALQA_ADDR"); v != "" {
		c.Addr = v
	}
	if v := getenv("LOCALQA_MODELS_DIR"); v != "" {
		c.ModelsDir = v
	}
	if v := getenv("LOCALQA_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("LOCALQA_MODELPATHS_GEMMA"); v != "" {
		c.ModelPaths.Gemma = v
	}
	if v := getenv("LOCALQA_MODELPATHS_GRANITE"); v != "" {
		c.ModelPaths.Granite = v
	}
	if v := getenv("LOCALQA_MODELPATHS_LLAMA3"); v != "" {
		c.ModelPaths.Llama3 = v
	}
}
