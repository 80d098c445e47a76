package agent

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sandevgo/archivist/internal/core"
	"github.com/sandevgo/archivist/internal/metrics"
	"github.com/sandevgo/archivist/internal/service/prompt"
	"github.com/sandevgo/archivist/pkg/log"
)

type Retriever interface {
	Retrieve(ctx context.Context, q core.Query) []core.Record
}

type Assembler interface {
	Process(records []core.Record) string
	CreatePrompt(question, context string) string
	WithHistory(prompt, history string) string
}

type Generator interface {
	Generate(ctx context.Context, prompt string) string
}

type Conversations interface {
	AddMessage(userID, text string, isAssistant bool)
	History(userID string) string
	Clear(userID string)
}

type Config struct {
	MaxResults int
	MaxDays    int
}

// Agent runs the answering pipeline: remember the question, retrieve
// history, build the prompt, generate, remember the answer.
//
// Concurrent calls for the same user must be serialized by the caller.
type Agent struct {
	cfg       Config
	retriever Retriever
	assembler Assembler
	generator Generator
	convs     Conversations
	limiter   core.RateLimiter
}

func NewAgent(
	cfg Config,
	retriever Retriever,
	assembler Assembler,
	generator Generator,
	convs Conversations,
) *Agent {
	return &Agent{
		cfg:       cfg,
		retriever: retriever,
		assembler: assembler,
		generator: generator,
		convs:     convs,
	}
}

// WithLimiter rejects questions from users over their rate.
func (a *Agent) WithLimiter(l core.RateLimiter) *Agent {
	a.limiter = l
	return a
}

// Answer always returns non-empty text.
func (a *Agent) Answer(ctx context.Context, userID, scope, question string) string {
	reqID := uuid.NewString()
	ctx = log.WithFields(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str("request_id", reqID).Str("user", userID).Str("scope", scope)
	})
	logger := log.FromCtx(ctx)

	question = strings.TrimSpace(question)
	if question == "" {
		metrics.AnswersTotal.WithLabelValues(metrics.OutcomeEmpty).Inc()
		return core.AnswerEmptyQuestion
	}

	if !a.allow(ctx, userID) {
		metrics.RateLimitHits.Inc()
		metrics.AnswersTotal.WithLabelValues(metrics.OutcomeRateLimited).Inc()
		return core.AnswerRateLimited
	}

	logger.Info().Str("question", question).Msg("answering question")
	a.convs.AddMessage(userID, question, false)

	records := a.retriever.Retrieve(ctx, core.Query{
		Text:       question,
		Scope:      scope,
		MaxDays:    a.cfg.MaxDays,
		MaxResults: a.cfg.MaxResults,
	})
	if len(records) == 0 {
		logger.Info().Msg("no relevant history")
		a.convs.AddMessage(userID, core.AnswerNoHistory, true)
		metrics.AnswersTotal.WithLabelValues(metrics.OutcomeNoHistory).Inc()
		return core.AnswerNoHistory
	}

	contextBlock := a.assembler.Process(records)
	p := a.assembler.CreatePrompt(question, contextBlock)
	p = a.assembler.WithHistory(p, a.convs.History(userID))

	tokens := prompt.EstimateTokens(p)
	metrics.PromptTokens.Observe(float64(tokens))
	logger.Debug().
		Int("records", len(records)).
		Int("prompt_chars", len(p)).
		Int("prompt_tokens", tokens).
		Msg("prompt assembled")

	answer := a.generator.Generate(ctx, p)
	a.convs.AddMessage(userID, answer, true)

	outcome := metrics.OutcomeGenerated
	if answer == core.AnswerGenerationFail || answer == core.AnswerNotConfigured {
		outcome = metrics.OutcomeFailed
	}
	metrics.AnswersTotal.WithLabelValues(outcome).Inc()

	return answer
}

func (a *Agent) ClearHistory(userID string) {
	a.convs.Clear(userID)
}

func (a *Agent) History(userID string) string {
	return a.convs.History(userID)
}

func (a *Agent) allow(ctx context.Context, userID string) bool {
	if a.limiter == nil {
		return true
	}
	ok, err := a.limiter.Allow(ctx, userID)
	if err != nil {
		// fail open
		log.FromCtx(ctx).Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	return ok
}
