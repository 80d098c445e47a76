package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/archivist/internal/core"
)

type StatusCommand struct {
	store     core.RecordBrowser
	formatter *ResponseFormatter
}

func NewStatusCommand(store core.RecordBrowser) *StatusCommand {
	return &StatusCommand{store: store, formatter: NewResponseFormatter()}
}

func (c *StatusCommand) Name() string        { return "db_status" }
func (c *StatusCommand) Usage() string       { return "db_status" }
func (c *StatusCommand) AdminOnly() bool     { return true }
func (c *StatusCommand) Description() string { return "Check the status of the message database." }

func (c *StatusCommand) Execute(ctx context.Context, _ core.Request, _ string) (string, error) {
	stats, err := c.store.Stats(ctx)
	if err != nil {
		return "", fmt.Errorf("error fetching database statistics: %w", err)
	}
	return FormatStats(stats), nil
}

// FormatStats renders store statistics for chat and terminal output.
func FormatStats(stats core.Stats) string {
	f := NewResponseFormatter()

	var sb strings.Builder
	sb.WriteString(f.Title("Database Status"))
	sb.WriteString(f.Label("Total messages stored", fmt.Sprint(stats.TotalRecords)))
	if stats.Oldest != nil && stats.Newest != nil {
		sb.WriteString(f.Label("Date range", fmt.Sprintf("%s to %s",
			stats.Oldest.Format("2006-01-02 15:04:05"), stats.Newest.Format("2006-01-02 15:04:05"))))
	} else {
		sb.WriteString("No messages stored yet.\n")
	}

	sections := []string{sb.String()}
	if len(stats.Channels) > 0 {
		var ch strings.Builder
		for _, cc := range stats.Channels {
			fmt.Fprintf(&ch, "#%s: %d messages\n", cc.Channel, cc.Count)
		}
		sections = append(sections, f.Section("Messages per channel:", ch.String()))
	}
	if stats.Attachments > 0 {
		sections = append(sections, f.Label("Attachments", fmt.Sprintf("%d stored", stats.Attachments)))
	}
	return f.Combine(sections...)
}
