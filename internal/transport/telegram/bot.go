package telegram

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sandevgo/archivist/internal/config"
	"github.com/sandevgo/archivist/internal/core"
	"github.com/sandevgo/archivist/internal/service/command"
	"github.com/sandevgo/archivist/internal/service/ingest"
	"github.com/sandevgo/archivist/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const baseContextKey = "base_context"

type Asker interface {
	Answer(ctx context.Context, userID, scope, question string) string
}

type Bot struct {
	bot    *tele.Bot
	cfg    *config.TelegramConfig
	asker  Asker
	router *command.Router
	ingest *ingest.Ingestor
	sender *sender
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	asker Asker,
	router *command.Router,
	ingestor *ingest.Ingestor,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:    b,
		cfg:    cfg,
		asker:  asker,
		router: router,
		ingest: ingestor,
		sender: newSender(b),
	}

	// Use context from Signal with logger
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	// Ignore other bots and channel posts without a sender
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender() == nil || c.Sender().IsBot {
				return nil
			}
			return next(c)
		}
	})

	b.Handle(tele.OnText, bot.handleMessage)
	b.Handle(tele.OnEdited, bot.handleEdit)

	return bot, nil
}

func (b *Bot) Name() string { return "telegram" }

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("bot", b.bot.Me.Username).Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	logger := log.FromCtx(ctx)
	msg := c.Message()

	req := core.Request{
		UserID:  strconv.FormatInt(c.Sender().ID, 10),
		Scope:   strconv.FormatInt(c.Chat().ID, 10),
		Channel: c.Chat().Title,
		Admin:   b.cfg.IsAdmin(c.Sender().ID),
	}

	if reply, ok := b.router.Execute(ctx, req, msg.Text); ok {
		return b.reply(ctx, c, req.UserID, reply)
	}

	if c.Chat().Type == tele.ChatPrivate {
		return b.answer(ctx, c, req, msg.Text)
	}

	if err := b.ingest.Store(ctx, recordFromMessage(msg), ingest.SourceLive); err != nil {
		logger.Error().Err(err).Msg("failed to store telegram message")
	}

	if question, ok := stripMention(msg.Text, b.bot.Me.Username); ok {
		return b.answer(ctx, c, req, question)
	}
	return nil
}

func (b *Bot) handleEdit(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	msg := c.Message()
	if msg == nil || c.Chat().Type == tele.ChatPrivate {
		return nil
	}
	if err := b.ingest.Store(ctx, recordFromMessage(msg), ingest.SourceEdit); err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to update telegram message")
	}
	return nil
}

func (b *Bot) answer(ctx context.Context, c tele.Context, req core.Request, question string) error {
	_ = c.Notify(tele.Typing)
	return b.reply(ctx, c, req.UserID, b.asker.Answer(ctx, req.UserID, req.Scope, question))
}

func (b *Bot) reply(ctx context.Context, c tele.Context, userID, text string) error {
	if text == "" {
		return nil
	}
	if err := b.sender.sendMarkdown(ctx, c.Chat(), text, c.Message()); err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("user", userID).Msg("failed to send telegram reply")
		return err
	}
	return nil
}

func recordFromMessage(msg *tele.Message) core.Record {
	rec := core.Record{
		ID:          fmt.Sprintf("tg:%d:%d", msg.Chat.ID, msg.ID),
		Scope:       strconv.FormatInt(msg.Chat.ID, 10),
		ChannelID:   strconv.FormatInt(msg.Chat.ID, 10),
		ChannelName: msg.Chat.Title,
		Content:     msg.Text,
		CreatedAt:   msg.Time().UTC(),
	}
	if msg.Sender != nil {
		rec.AuthorID = strconv.FormatInt(msg.Sender.ID, 10)
		rec.AuthorName = displayName(msg.Sender)
	}
	if msg.ReplyTo != nil {
		rec.ReplyTo = fmt.Sprintf("tg:%d:%d", msg.Chat.ID, msg.ReplyTo.ID)
	}
	if msg.Caption != "" && rec.Content == "" {
		rec.Content = msg.Caption
	}
	if msg.Photo != nil || msg.Document != nil {
		rec.Attachments = 1
	}
	return rec
}

func displayName(u *tele.User) string {
	if u.Username != "" {
		return u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// stripMention reports whether text addresses the bot and returns the rest.
// The first mention is removed, matched case-insensitively.
func stripMention(text, username string) (string, bool) {
	if username == "" {
		return "", false
	}
	re := regexp.MustCompile("(?i)@" + regexp.QuoteMeta(username))
	loc := re.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	rest := text[:loc[0]] + text[loc[1]:]
	return strings.TrimSpace(rest), true
}

