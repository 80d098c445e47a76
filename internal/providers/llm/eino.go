package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sandevgo/archivist/internal/core"
)

// Eino routes completions through an eino chat model instead of the
// hand-rolled HTTP providers.
type Eino struct {
	chat  model.BaseChatModel
	model string
}

func NewEino(ctx context.Context, opts Options) (*Eino, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	chat, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: opts.BaseURL,
		APIKey:  opts.APIKey,
		Model:   opts.Model,
		Timeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create eino chat model: %w", err)
	}

	return newEinoWithModel(chat, opts.Model), nil
}

func newEinoWithModel(chat model.BaseChatModel, name string) *Eino {
	return &Eino{chat: chat, model: name}
}

func (e *Eino) Complete(ctx context.Context, req core.CompletionRequest) (string, error) {
	var messages []*schema.Message
	if req.System != "" {
		messages = append(messages, schema.SystemMessage(req.System))
	}
	messages = append(messages, schema.UserMessage(req.Prompt))

	opts := []model.Option{model.WithTemperature(float32(req.Temperature))}
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}
	if req.Model != "" && req.Model != e.model {
		opts = append(opts, model.WithModel(req.Model))
	}

	resp, err := e.chat.Generate(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("eino generate: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("eino generate: empty response")
	}
	return resp.Content, nil
}
