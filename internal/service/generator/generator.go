package generator

import (
	"context"
	"errors"
	"time"

	"github.com/sandevgo/archivist/internal/core"
	"github.com/sandevgo/archivist/internal/metrics"
	"github.com/sandevgo/archivist/pkg/log"
)

const systemPrompt = "You are a helpful assistant that answers questions based on Discord message history."

type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	// Configured is false when no credential is available.
	Configured bool
}

// Generator turns a prompt into answer text. It never returns an error:
// every failure resolves to a fixed apology.
type Generator struct {
	client core.LanguageModelClient
	cfg    Config
}

func NewGenerator(client core.LanguageModelClient, cfg Config) *Generator {
	return &Generator{client: client, cfg: cfg}
}

func (g *Generator) Generate(ctx context.Context, prompt string) string {
	return g.GenerateWithTemperature(ctx, prompt, g.cfg.Temperature)
}

func (g *Generator) GenerateWithTemperature(ctx context.Context, prompt string, temperature float64) string {
	logger := log.FromCtx(ctx)

	if !g.cfg.Configured || g.client == nil {
		logger.Error().Err(core.ErrNotConfigured).Msg("skipping generation")
		metrics.GenerationDuration.WithLabelValues("not_configured").Observe(0)
		return core.AnswerNotConfigured
	}

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := g.client.Complete(ctx, core.CompletionRequest{
		System:      systemPrompt,
		Prompt:      prompt,
		Model:       g.cfg.Model,
		Temperature: temperature,
		MaxTokens:   g.cfg.MaxTokens,
	})
	elapsed := time.Since(start)

	if err != nil {
		var se *core.StatusError
		switch {
		case errors.As(err, &se):
			logger.Error().Int("status", se.Code).Str("body", se.Body).Msg("language model returned an error")
		case errors.Is(err, context.DeadlineExceeded):
			logger.Error().Err(err).Dur("timeout", g.cfg.Timeout).Msg("language model timed out")
		default:
			logger.Error().Err(err).Msg("language model request failed")
		}
		metrics.GenerationDuration.WithLabelValues("error").Observe(elapsed.Seconds())
		return core.AnswerGenerationFail
	}

	metrics.GenerationDuration.WithLabelValues("ok").Observe(elapsed.Seconds())
	if text == "" {
		logger.Warn().Msg("language model returned empty text")
		return core.AnswerGenerationFail
	}
	return text
}
