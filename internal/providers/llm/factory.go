package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/archivist/internal/config"
	"github.com/sandevgo/archivist/internal/core"
	"github.com/sandevgo/archivist/pkg/log"
	"github.com/sandevgo/archivist/pkg/retry"
)

// NewClient creates the LanguageModelClient named by cfg.Provider, wrapped
// in a retry policy when cfg.MaxRetries > 0.
func NewClient(ctx context.Context, cfg *config.LLMConfig) (core.LanguageModelClient, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Msg("starting llm provider")

	opts := Options{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}

	var (
		client core.LanguageModelClient
		err    error
	)
	switch cfg.Provider {
	case "openai":
		client = NewOpenAI(opts)
	case "anthropic":
		client = NewAnthropic(opts)
	case "openrouter":
		client = NewOpenRouter(opts)
	case "ollama":
		client = NewOllama(opts)
	case "custom":
		if opts.BaseURL == "" {
			return nil, fmt.Errorf("custom provider requires ARCHIVIST_LLM_BASE_URL")
		}
		client = NewCustomOpenAI(opts)
	case "eino":
		client, err = NewEino(ctx, opts)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}

	if cfg.MaxRetries > 0 {
		client = NewRetrying(client, &retry.Config{
			MaxRetries:    cfg.MaxRetries,
			BackoffFactor: 2,
			InitialDelay:  500 * time.Millisecond,
			MaxDelay:      10 * time.Second,
			Jitter:        100 * time.Millisecond,
		})
	}
	return client, nil
}
