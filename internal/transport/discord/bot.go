package discord

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/sandevgo/archivist/internal/config"
	"github.com/sandevgo/archivist/internal/core"
	"github.com/sandevgo/archivist/internal/service/command"
	"github.com/sandevgo/archivist/internal/service/ingest"
	"github.com/sandevgo/archivist/pkg/log"
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

type Asker interface {
	Answer(ctx context.Context, userID, scope, question string) string
}

// session is the slice of the Discord REST API the bot talks to.
type session interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
}

type Bot struct {
	dg     *discordgo.Session
	api    session
	cfg    *config.DiscordConfig
	asker  Asker
	router *command.Router
	ingest *ingest.Ingestor

	mu    sync.RWMutex
	botID string
	names map[string]string
}

// NewBot builds the Discord transport. The router is created here so the
// backfill commands can reach the session.
func NewBot(
	ctx context.Context,
	cfg *config.DiscordConfig,
	asker Asker,
	ingestor *ingest.Ingestor,
	commands []core.Command,
) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	dg.Identify.Intents = intents

	b := newBot(dg, cfg, asker, ingestor, commands)
	b.dg = dg

	dg.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		b.handleMessage(ctx, m.Message)
	})
	dg.AddHandler(func(s *discordgo.Session, m *discordgo.MessageUpdate) {
		b.handleEdit(ctx, m.Message)
	})
	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.setSelfID(r.User.ID)
		log.FromCtx(ctx).Info().
			Str("user", r.User.Username).
			Int("guilds", len(r.Guilds)).
			Msg("discord bot connected")
	})

	return b, nil
}

func newBot(api session, cfg *config.DiscordConfig, asker Asker, ingestor *ingest.Ingestor, commands []core.Command) *Bot {
	b := &Bot{
		api:    api,
		cfg:    cfg,
		asker:  asker,
		ingest: ingestor,
		names:  make(map[string]string),
	}
	all := append(append([]core.Command{}, commands...), NewFetchHistoryCommand(b), NewFetchChannelCommand(b))
	b.router = command.NewRouter(cfg.Prefix, false, all...)
	return b
}

func (b *Bot) Name() string { return "discord" }

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting discord bot")
	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}
	if b.dg.State != nil && b.dg.State.User != nil {
		b.setSelfID(b.dg.State.User.ID)
	}
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	return b.dg.Close()
}

func (b *Bot) handleMessage(ctx context.Context, m *discordgo.Message) {
	self := b.selfID()
	if m.Author == nil || m.Author.Bot || m.Author.ID == self {
		return
	}
	logger := log.FromCtx(ctx)

	req := core.Request{
		UserID:  m.Author.ID,
		Scope:   m.GuildID,
		Channel: m.ChannelID,
	}

	if strings.HasPrefix(m.Content, b.router.Prefix()) {
		req.Admin = b.isAdmin(ctx, m)
		if reply, ok := b.router.Execute(ctx, req, m.Content); ok {
			b.reply(ctx, m, reply)
			return
		}
	}

	// Direct messages have no server history to search.
	if m.GuildID == "" {
		return
	}

	if err := b.ingest.Store(ctx, b.recordFromMessage(ctx, m), ingest.SourceLive); err != nil {
		logger.Error().Err(err).Str("message", m.ID).Msg("failed to store discord message")
	}

	if question, ok := stripMention(m.Content, self); ok && mentions(m, self) {
		b.answer(ctx, m, req, question)
	}
}

func (b *Bot) handleEdit(ctx context.Context, m *discordgo.Message) {
	// Embed-only updates arrive without author or content.
	if m == nil || m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	if err := b.ingest.Store(ctx, b.recordFromMessage(ctx, m), ingest.SourceEdit); err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("message", m.ID).Msg("failed to update discord message")
	}
}

// answer relies on the asker to serialize questions per user.
func (b *Bot) answer(ctx context.Context, m *discordgo.Message, req core.Request, question string) {
	_ = b.api.ChannelTyping(m.ChannelID)
	b.reply(ctx, m, b.asker.Answer(ctx, req.UserID, req.Scope, question))
}

func (b *Bot) selfID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.botID
}

func (b *Bot) setSelfID(id string) {
	b.mu.Lock()
	b.botID = id
	b.mu.Unlock()
}

func (b *Bot) isAdmin(ctx context.Context, m *discordgo.Message) bool {
	if m.GuildID == "" {
		return false
	}
	perms, err := b.api.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Str("user", m.Author.ID).Msg("failed to resolve discord permissions")
		return false
	}
	return perms&discordgo.PermissionAdministrator != 0
}

// channelName resolves and caches channel names for stored records.
func (b *Bot) channelName(ctx context.Context, channelID string) string {
	b.mu.RLock()
	name, ok := b.names[channelID]
	b.mu.RUnlock()
	if ok {
		return name
	}

	ch, err := b.api.Channel(channelID)
	if err != nil {
		log.FromCtx(ctx).Debug().Err(err).Str("channel", channelID).Msg("failed to resolve channel name")
		return channelID
	}
	b.rememberChannel(ch)
	return ch.Name
}

func (b *Bot) rememberChannel(ch *discordgo.Channel) {
	b.mu.Lock()
	b.names[ch.ID] = ch.Name
	b.mu.Unlock()
}

func (b *Bot) recordFromMessage(ctx context.Context, m *discordgo.Message) core.Record {
	return recordFromMessage(m, b.channelName(ctx, m.ChannelID))
}

func recordFromMessage(m *discordgo.Message, channelName string) core.Record {
	rec := core.Record{
		ID:          m.ID,
		Scope:       m.GuildID,
		ChannelID:   m.ChannelID,
		ChannelName: channelName,
		Content:     m.Content,
		CreatedAt:   m.Timestamp.UTC(),
		Pinned:      m.Pinned,
		Attachments: len(m.Attachments),
	}
	if m.Author != nil {
		rec.AuthorID = m.Author.ID
		rec.AuthorName = m.Author.Username
	}
	if m.MessageReference != nil {
		rec.ReplyTo = m.MessageReference.MessageID
	}
	return rec
}

func mentions(m *discordgo.Message, botID string) bool {
	for _, u := range m.Mentions {
		if u != nil && u.ID == botID {
			return true
		}
	}
	return false
}

// stripMention removes <@id> and <@!id> forms of the bot mention.
func stripMention(content, botID string) (string, bool) {
	if botID == "" {
		return "", false
	}
	out := content
	for _, tag := range []string{"<@" + botID + ">", "<@!" + botID + ">"} {
		out = strings.ReplaceAll(out, tag, "")
	}
	if out == content {
		return "", false
	}
	return strings.TrimSpace(out), true
}
