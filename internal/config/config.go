package config

import (
	"strings"

	"localqa/pkg/types"
)

// Defaults applied when the corresponding Config fields are unset.
const (
	DefaultAddr        = ":8080"
	DefaultModelsDir   = "models"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "console"
	DefaultMaxTokens   = 512
	DefaultTokensKeep  = 512
	DefaultContextSize = 2048
)

// DefaultStop lists the stop sequences used when none are configured.
var DefaultStop = []string{"User:", "[INST]"}

// Config holds runtime parameters for the application.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Addr       string     `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir  string     `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	LogLevel   string     `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat  string     `json:"log_format" yaml:"log_format" toml:"log_format"`
	ModelPaths ModelPaths `json:"model_paths" yaml:"model_paths" toml:"model_paths"`
	Inference  Inference  `json:"inference" yaml:"inference" toml:"inference"`
	CORS       CORS       `json:"cors" yaml:"cors" toml:"cors"`
}

// ModelPaths holds the three well-known model slots (ModelPaths:<Name>).
// An empty value means the slot is not configured.
type ModelPaths struct {
	Gemma   string `json:"gemma" yaml:"gemma" toml:"gemma"`
	Granite string `json:"granite" yaml:"granite" toml:"granite"`
	Llama3  string `json:"llama3" yaml:"llama3" toml:"llama3"`
}

// Inference tunes model loading and generation. GPULayers stays at zero
// unless set explicitly. Zero sampling fields keep the engine defaults.
type Inference struct {
	MaxTokens   int      `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	TokensKeep  int      `json:"tokens_keep" yaml:"tokens_keep" toml:"tokens_keep"`
	ContextSize int      `json:"context_size" yaml:"context_size" toml:"context_size"`
	GPULayers   int      `json:"gpu_layers" yaml:"gpu_layers" toml:"gpu_layers"`
	Threads     int      `json:"threads" yaml:"threads" toml:"threads"`
	Stop        []string `json:"stop" yaml:"stop" toml:"stop"`

	Temperature   float32 `json:"temperature" yaml:"temperature" toml:"temperature"`
	TopP          float32 `json:"top_p" yaml:"top_p" toml:"top_p"`
	TopK          int     `json:"top_k" yaml:"top_k" toml:"top_k"`
	Seed          int     `json:"seed" yaml:"seed" toml:"seed"`
	RepeatPenalty float32 `json:"repeat_penalty" yaml:"repeat_penalty" toml:"repeat_penalty"`
}

// CORS configures the opt-in CORS middleware of the HTTP API.
type CORS struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins"`
}

// Defaults returns a Config with every default applied.
func Defaults() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills unset fields in place.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ModelsDir == "" {
		c.ModelsDir = DefaultModelsDir
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.Inference.MaxTokens <= 0 {
		c.Inference.MaxTokens = DefaultMaxTokens
	}
	if c.Inference.TokensKeep <= 0 {
		c.Inference.TokensKeep = DefaultTokensKeep
	}
	if c.Inference.ContextSize <= 0 {
		c.Inference.ContextSize = DefaultContextSize
	}
	if c.Inference.GPULayers < 0 {
		c.Inference.GPULayers = 0
	}
	if len(c.Inference.Stop) == 0 {
		c.Inference.Stop = append([]string(nil), DefaultStop...)
	}
}

// ModelSlots returns the configured model slots in fixed order. Slots are
// returned even when unset; callers drop blank paths.
func (c Config) ModelSlots() []types.ModelSlot {
	return []types.ModelSlot{
		{Key: "Gemma", Name: "Gemma 2B", Path: strings.TrimSpace(c.ModelPaths.Gemma)},
		{Key: "Granite", Name: "Granite 7B", Path: strings.TrimSpace(c.ModelPaths.Granite)},
		{Key: "Llama3", Name: "Llama 3 8B", Path: strings.TrimSpace(c.ModelPaths.Llama3)},
	}
}
