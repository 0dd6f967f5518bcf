package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/semidark/aichat/internal/config"
	"github.com/semidark/aichat/internal/handlers"
	"github.com/semidark/aichat/internal/logger"
	"github.com/semidark/aichat/internal/services"
)

// newStore builds the history store selected by the configuration: JSON
// files per session, or a single bbolt database.
func newStore(cfg config.Config) (handlers.Store, func(), error) {
	switch cfg.Storage {
	case "file":
		store, err := services.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case "bolt":
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("error creating data directory: %w", err)
		}
		store, err := services.NewBoltStore(filepath.Join(cfg.DataDir, "store.db"))
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.L.Error("Failed to close bolt store", "err", err.Error())
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage)
	}
}

// newLLM builds the generation backend selected by the configuration.
// Provider-conventional environment variables fill in credentials the
// resolved config leaves empty.
func newLLM(cfg config.Config) (handlers.LLM, error) {
	llm := cfg.LLM
	if llm.Model == "" {
		return nil, fmt.Errorf("llm model is required")
	}

	switch llm.Provider {
	case "ollama":
		host := llm.Host
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		if host == "" {
			return nil, fmt.Errorf("ollama host is required")
		}
		return services.NewOllama(host, llm.Model, cfg.SystemPrompt), nil
	case "openai":
		apiKey := llm.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("openai api key is required")
		}
		return services.NewOpenAI(apiKey, llm.BaseURL, llm.Model, cfg.SystemPrompt, logger.L), nil
	case "anthropic":
		apiKey := llm.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic api key is required")
		}
		maxTokens := llm.MaxTokens
		if maxTokens == 0 {
			maxTokens = 4096
		}
		return services.NewAnthropic(apiKey, llm.Model, cfg.SystemPrompt, maxTokens), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", llm.Provider)
	}
}
