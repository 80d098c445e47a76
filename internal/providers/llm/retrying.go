package llm

import (
	"context"
	"errors"

	"github.com/sandevgo/archivist/internal/core"
	"github.com/sandevgo/archivist/pkg/log"
	"github.com/sandevgo/archivist/pkg/retry"
)

// Retrying re-issues a completion on transient failures. Client errors
// (4xx other than 429) are returned at once.
type Retrying struct {
	next    core.LanguageModelClient
	retrier *retry.Retrier
}

func NewRetrying(next core.LanguageModelClient, cfg *retry.Config) *Retrying {
	return &Retrying{next: next, retrier: retry.NewRetrier(cfg)}
}

func (r *Retrying) Complete(ctx context.Context, req core.CompletionRequest) (string, error) {
	var (
		out     string
		attempt int
	)
	err := r.retrier.Do(ctx, func(ctx context.Context) error {
		attempt++
		text, err := r.next.Complete(ctx, req)
		if err == nil {
			out = text
			return nil
		}

		var se *core.StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return retry.Permanent(err)
		}
		if attempt < r.retrier.Attempts() {
			log.FromCtx(ctx).Warn().Err(err).Int("attempt", attempt).Msg("completion failed, retrying")
		}
		return err
	})
	return out, err
}
