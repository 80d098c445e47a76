package command

import (
	"context"

	"github.com/sandevgo/archivist/internal/core"
)

type Asker interface {
	Answer(ctx context.Context, userID, scope, question string) string
}

type AskCommand struct {
	asker Asker
}

func NewAskCommand(asker Asker) *AskCommand {
	return &AskCommand{asker: asker}
}

func (c *AskCommand) Name() string        { return "ask" }
func (c *AskCommand) Usage() string       { return "ask [question]" }
func (c *AskCommand) AdminOnly() bool     { return false }
func (c *AskCommand) Description() string {
	return "Ask a question and I'll search the server's message history to provide an answer."
}

func (c *AskCommand) Execute(ctx context.Context, req core.Request, args string) (string, error) {
	return c.asker.Answer(ctx, req.UserID, req.Scope, args), nil
}
