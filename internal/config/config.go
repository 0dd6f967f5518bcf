// Package config resolves the server configuration from an ordered list of
// sources. Later sources override earlier ones, so the usual stack is
// defaults, then the YAML file, then environment variables. Resolution is a
// pure function over the sources; the environment source takes an injected
// lookup so tests never touch the process environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LLMConfig selects and parameterizes the generation backend.
type LLMConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	Host      string `yaml:"host"`
	APIKey    string `yaml:"apiKey"`
	BaseURL   string `yaml:"baseUrl"`
	MaxTokens int    `yaml:"maxTokens"`
}

// Config is the resolved process configuration, read-only after startup.
type Config struct {
	Port            string    `yaml:"port"`
	LogLevel        string    `yaml:"logLevel"`
	DataDir         string    `yaml:"dataDir"`
	Storage         string    `yaml:"storage"`
	FlushIntervalMs int       `yaml:"flushIntervalMs"`
	SystemPrompt    string    `yaml:"systemPrompt"`
	LLM             LLMConfig `yaml:"llm"`
}

// FlushInterval returns the streaming flush cadence as a duration.
func (c Config) FlushInterval() time.Duration {
	return time.Duration(c.FlushIntervalMs) * time.Millisecond
}

// Default returns the documented default configuration. The flush interval
// default of 500ms paces output for a display that repaints roughly twice a
// second.
func Default() Config {
	return Config{
		Port:            "8080",
		LogLevel:        "info",
		DataDir:         "data",
		Storage:         "file",
		FlushIntervalMs: 500,
		SystemPrompt:    "You are a helpful assistant.",
		LLM: LLMConfig{
			Provider: "ollama",
			Host:     "http://localhost:11434",
		},
	}
}

// Source applies one layer of configuration on top of cfg.
type Source interface {
	Apply(cfg *Config) error
}

// Resolve folds the sources, in order, over the defaults and validates the
// result.
func Resolve(sources ...Source) (Config, error) {
	cfg := Default()
	for _, src := range sources {
		if err := src.Apply(&cfg); err != nil {
			return Config{}, err
		}
	}

	if cfg.FlushIntervalMs <= 0 {
		return Config{}, fmt.Errorf("config: flushIntervalMs must be positive, got %d", cfg.FlushIntervalMs)
	}
	switch cfg.Storage {
	case "file", "bolt":
	default:
		return Config{}, fmt.Errorf("config: unknown storage backend %q", cfg.Storage)
	}

	return cfg, nil
}

// FileSource reads a YAML configuration file. A missing file is not an
// error when Optional is set, so a bare deployment runs on defaults.
type FileSource struct {
	Path     string
	Optional bool
}

// Apply decodes the file over cfg. Fields absent from the file keep their
// prior values.
func (f FileSource) Apply(cfg *Config) error {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		if f.Optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: reading %s: %w", f.Path, err)
	}

	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("config: parsing %s: %w", f.Path, err)
	}
	return nil
}

// EnvSource overrides configuration fields from environment variables. The
// lookup function has the shape of os.LookupEnv and is injected so the
// source can be exercised against a plain map.
type EnvSource struct {
	Lookup func(key string) (string, bool)
}

// Apply overrides every field whose AICHAT_* variable is present.
func (e EnvSource) Apply(cfg *Config) error {
	lookup := e.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	setString := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	setString("AICHAT_PORT", &cfg.Port)
	setString("AICHAT_LOG_LEVEL", &cfg.LogLevel)
	setString("AICHAT_DATA_DIR", &cfg.DataDir)
	setString("AICHAT_STORAGE", &cfg.Storage)
	setString("AICHAT_SYSTEM_PROMPT", &cfg.SystemPrompt)
	setString("AICHAT_LLM_PROVIDER", &cfg.LLM.Provider)
	setString("AICHAT_LLM_MODEL", &cfg.LLM.Model)
	setString("AICHAT_LLM_HOST", &cfg.LLM.Host)
	setString("AICHAT_LLM_API_KEY", &cfg.LLM.APIKey)
	setString("AICHAT_LLM_BASE_URL", &cfg.LLM.BaseURL)

	if v, ok := lookup("AICHAT_FLUSH_INTERVAL_MS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: AICHAT_FLUSH_INTERVAL_MS: %w", err)
		}
		cfg.FlushIntervalMs = n
	}
	if v, ok := lookup("AICHAT_LLM_MAX_TOKENS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: AICHAT_LLM_MAX_TOKENS: %w", err)
		}
		cfg.LLM.MaxTokens = n
	}

	return nil
}
