package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/archivist/internal/core"
)

const (
	searchLimit      = 10
	searchClipLength = 200
)

type SearchCommand struct {
	store     core.RecordBrowser
	formatter *ResponseFormatter
}

func NewSearchCommand(store core.RecordBrowser) *SearchCommand {
	return &SearchCommand{store: store, formatter: NewResponseFormatter()}
}

func (c *SearchCommand) Name() string    { return "search" }
func (c *SearchCommand) Usage() string   { return "search [term]" }
func (c *SearchCommand) AdminOnly() bool { return false }
func (c *SearchCommand) Description() string {
	return "Search for specific messages in the server's history containing the given term."
}

func (c *SearchCommand) Execute(ctx context.Context, req core.Request, args string) (string, error) {
	if args == "" {
		return c.formatter.Usage(c.Usage()), nil
	}

	records, err := c.store.FindByContent(ctx, req.Scope, args, searchLimit)
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}
	if len(records) == 0 {
		return fmt.Sprintf("No messages found containing '%s'.", args), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d messages:\n\n", len(records))
	for i, rec := range records {
		fmt.Fprintf(&sb, "%d. %s in #%s (%s)\n%s\n\n",
			i+1, rec.AuthorName, rec.ChannelName,
			rec.CreatedAt.Format("2006-01-02 15:04"),
			c.formatter.Clip(rec.Content, searchClipLength),
		)
	}

	return c.formatter.Combine(
		c.formatter.Title(fmt.Sprintf("Search Results for '%s'", args)),
		sb.String(),
	), nil
}
