package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/archivist/internal/core"
)

type HelpCommand struct {
	prefix    string
	list      func() []core.Command
	formatter *ResponseFormatter
}

// NewHelpCommand lists whatever list returns at call time, so it can be
// registered on the same router it describes.
func NewHelpCommand(prefix string, list func() []core.Command) *HelpCommand {
	return &HelpCommand{prefix: prefix, list: list, formatter: NewResponseFormatter()}
}

func (c *HelpCommand) Name() string        { return "help_rag" }
func (c *HelpCommand) Usage() string       { return "help_rag" }
func (c *HelpCommand) AdminOnly() bool     { return false }
func (c *HelpCommand) Description() string { return "Show what I can do." }

func (c *HelpCommand) Execute(_ context.Context, req core.Request, _ string) (string, error) {
	var sb strings.Builder
	for _, cmd := range c.list() {
		if cmd.Name() == c.Name() || (cmd.AdminOnly() && !req.Admin) {
			continue
		}
		fmt.Fprintf(&sb, "%s%s\n  %s\n", c.prefix, cmd.Usage(), cmd.Description())
	}

	return c.formatter.Combine(
		c.formatter.Title(core.AppName+" Help"),
		"I can answer questions based on the server's message history. Here are the commands you can use:\n",
		sb.String(),
		c.formatter.Label("Example", c.prefix+"ask What was decided about the project timeline yesterday?"),
	), nil
}
