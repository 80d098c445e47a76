package command

import (
	"context"

	"github.com/sandevgo/archivist/internal/core"
)

const historyCleared = "Your conversation history has been cleared."

type HistoryClearer interface {
	ClearHistory(userID string)
}

type ClearCommand struct {
	clearer HistoryClearer
}

func NewClearCommand(clearer HistoryClearer) *ClearCommand {
	return &ClearCommand{clearer: clearer}
}

func (c *ClearCommand) Name() string        { return "clear" }
func (c *ClearCommand) Usage() string       { return "clear" }
func (c *ClearCommand) AdminOnly() bool     { return false }
func (c *ClearCommand) Description() string { return "Clear your conversation history with me." }

func (c *ClearCommand) Execute(_ context.Context, req core.Request, _ string) (string, error) {
	c.clearer.ClearHistory(req.UserID)
	return historyCleared, nil
}
