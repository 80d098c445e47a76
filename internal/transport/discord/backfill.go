package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sandevgo/archivist/internal/core"
	"github.com/sandevgo/archivist/internal/service/ingest"
	"github.com/sandevgo/archivist/pkg/log"
)

var channelMention = regexp.MustCompile(`^<#(\d+)>$`)

type fetchArgs struct {
	limit int
	days  int
}

func (a fetchArgs) since(now time.Time) time.Time {
	if a.days <= 0 {
		return time.Time{}
	}
	return now.AddDate(0, 0, -a.days)
}

// parseFetchArgs reads optional "[limit] [days]" arguments.
func parseFetchArgs(fields []string, defaultLimit int) (fetchArgs, error) {
	args := fetchArgs{limit: defaultLimit}
	if len(fields) > 2 {
		return args, core.ErrInvalidArgs
	}
	if len(fields) > 0 {
		n, err := strconv.Atoi(fields[0])
		if err != nil || n <= 0 {
			return args, fmt.Errorf("%w: limit must be a positive number", core.ErrInvalidArgs)
		}
		args.limit = n
	}
	if len(fields) > 1 {
		n, err := strconv.Atoi(fields[1])
		if err != nil || n <= 0 {
			return args, fmt.Errorf("%w: days must be a positive number", core.ErrInvalidArgs)
		}
		args.days = n
	}
	return args, nil
}

type FetchHistoryCommand struct {
	bot *Bot
}

func NewFetchHistoryCommand(bot *Bot) *FetchHistoryCommand {
	return &FetchHistoryCommand{bot: bot}
}

func (c *FetchHistoryCommand) Name() string { return "fetch_history" }
func (c *FetchHistoryCommand) Description() string {
	return "Fetch historical messages from every text channel"
}
func (c *FetchHistoryCommand) Usage() string   { return "fetch_history [limit] [days]" }
func (c *FetchHistoryCommand) AdminOnly() bool { return true }

func (c *FetchHistoryCommand) Execute(ctx context.Context, req core.Request, args string) (string, error) {
	if req.Scope == "" {
		return "", fmt.Errorf("%w: run this in a server channel", core.ErrInvalidArgs)
	}
	fa, err := parseFetchArgs(strings.Fields(args), c.bot.cfg.FetchLimit)
	if err != nil {
		return "", err
	}

	if fa.days > 0 {
		c.bot.notify(ctx, req.Channel, fmt.Sprintf("Starting to fetch messages from the last %d days. This may take a while...", fa.days))
	} else {
		c.bot.notify(ctx, req.Channel, "Starting to fetch all historical messages. This may take a while...")
	}

	channels, err := c.bot.api.GuildChannels(req.Scope)
	if err != nil {
		return "", fmt.Errorf("list channels: %w", err)
	}
	channels = textChannels(channels)
	c.bot.notify(ctx, req.Channel, fmt.Sprintf("Will fetch messages from %d channels. Please wait...", len(channels)))

	since := fa.since(time.Now())
	total := 0
	for _, ch := range channels {
		n, err := c.bot.backfill(ctx, ch, fa.limit, since)
		total += n
		// Forbidden and per-channel failures are logged and skipped.
		if errors.Is(err, context.Canceled) {
			return "", err
		}
	}
	return fmt.Sprintf("Historical message fetch complete! Stored %d messages in the database.", total), nil
}

type FetchChannelCommand struct {
	bot *Bot
}

func NewFetchChannelCommand(bot *Bot) *FetchChannelCommand {
	return &FetchChannelCommand{bot: bot}
}

func (c *FetchChannelCommand) Name() string        { return "fetch_channel" }
func (c *FetchChannelCommand) Description() string { return "Fetch historical messages from one channel" }
func (c *FetchChannelCommand) Usage() string       { return "fetch_channel #channel [limit] [days]" }
func (c *FetchChannelCommand) AdminOnly() bool     { return true }

func (c *FetchChannelCommand) Execute(ctx context.Context, req core.Request, args string) (string, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", core.ErrInvalidArgs
	}
	match := channelMention.FindStringSubmatch(fields[0])
	if match == nil {
		return "", fmt.Errorf("%w: mention the channel as #channel", core.ErrInvalidArgs)
	}
	fa, err := parseFetchArgs(fields[1:], c.bot.cfg.FetchLimit)
	if err != nil {
		return "", err
	}

	ch, err := c.bot.api.Channel(match[1])
	if err != nil {
		return "", fmt.Errorf("resolve channel: %w", err)
	}
	if req.Scope != "" && ch.GuildID != req.Scope {
		return "", fmt.Errorf("%w: channel belongs to another server", core.ErrInvalidArgs)
	}

	if fa.days > 0 {
		c.bot.notify(ctx, req.Channel, fmt.Sprintf("Fetching messages from #%s for the last %d days...", ch.Name, fa.days))
	} else {
		c.bot.notify(ctx, req.Channel, fmt.Sprintf("Fetching all messages from #%s...", ch.Name))
	}

	n, err := c.bot.backfill(ctx, ch, fa.limit, fa.since(time.Now()))
	if err != nil && isForbidden(err) {
		return fmt.Sprintf("I don't have permission to read #%s.", ch.Name), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Complete! Stored %d messages from #%s.", n, ch.Name), nil
}

// backfill stores up to limit messages of ch newer than since.
func (b *Bot) backfill(ctx context.Context, ch *discordgo.Channel, limit int, since time.Time) (int, error) {
	logger := log.FromCtx(ctx).With().Str("channel", ch.Name).Logger()
	b.rememberChannel(ch)

	fetch := func(ctx context.Context, before string, n int) ([]core.Record, error) {
		msgs, err := b.api.ChannelMessages(ch.ID, n, before, "", "")
		if err != nil {
			return nil, err
		}
		records := make([]core.Record, 0, len(msgs))
		for _, m := range msgs {
			if m.GuildID == "" {
				m.GuildID = ch.GuildID
			}
			records = append(records, recordFromMessage(m, ch.Name))
		}
		return records, nil
	}

	n, err := b.ingest.Backfill(ctx, ingest.BackfillRequest{Channel: ch.Name, Limit: limit, Since: since}, fetch)
	switch {
	case err != nil && isForbidden(err):
		logger.Warn().Msg("no permission to read channel history, skipping")
	case err != nil:
		logger.Error().Err(err).Int("stored", n).Msg("channel backfill failed")
	default:
		logger.Info().Int("stored", n).Msg("channel backfill complete")
	}
	return n, err
}

func textChannels(channels []*discordgo.Channel) []*discordgo.Channel {
	out := make([]*discordgo.Channel, 0, len(channels))
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText || ch.Type == discordgo.ChannelTypeGuildNews {
			out = append(out, ch)
		}
	}
	return out
}

func isForbidden(err error) bool {
	var rest *discordgo.RESTError
	return errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == http.StatusForbidden
}
