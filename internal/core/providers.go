package core

import (
	"context"
	"fmt"
)

// CompletionRequest is one call to the language-model service.
type CompletionRequest struct {
	System      string
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// LanguageModelClient is the only surface the Generator talks to.
type LanguageModelClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// StatusError is returned by LanguageModelClient implementations when the
// service answers with a non-success status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.Code == 429 || e.Code >= 500
}

type Model struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContextLength int    `json:"context_length"`
}

// ModelLister is implemented by providers that can enumerate their models.
type ModelLister interface {
	Models(ctx context.Context) ([]Model, error)
}
