package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/archivist/pkg/log"
)

type LLMConfig struct {
	Provider    string        `env:"ARCHIVIST_LLM_PROVIDER" envDefault:"openai"`
	Model       string        `env:"ARCHIVIST_LLM_MODEL" envDefault:"o3-mini"`
	APIKey      string        `env:"ARCHIVIST_LLM_API_KEY"`
	BaseURL     string        `env:"ARCHIVIST_LLM_BASE_URL"`
	Temperature float64       `env:"ARCHIVIST_LLM_TEMPERATURE" envDefault:"0.7"`
	MaxTokens   int           `env:"ARCHIVIST_LLM_MAX_TOKENS" envDefault:"16384"`
	Timeout     time.Duration `env:"ARCHIVIST_LLM_TIMEOUT" envDefault:"60s"`
	MaxRetries  int           `env:"ARCHIVIST_LLM_MAX_RETRIES" envDefault:"0"`
}

func NewLLMConfig(ctx context.Context) *LLMConfig {
	c := &LLMConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse LLM config")
	}
	// OPENAI_API_KEY is honoured as a fallback credential.
	if c.APIKey == "" {
		c.APIKey = envFallback("OPENAI_API_KEY")
	}
	return c
}

func (c LLMConfig) HasCredential() bool {
	// ollama runs locally without a key
	return c.APIKey != "" || c.Provider == "ollama"
}
