package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/sandevgo/archivist/pkg/conv"
	"github.com/sandevgo/archivist/pkg/log"
)

const (
	maxMessageLen = 2000
	chunkLen      = 1990
)

// reply sends text back to m's channel. The first chunk is a reply to m.
func (b *Bot) reply(ctx context.Context, m *discordgo.Message, text string) {
	if text == "" {
		return
	}
	logger := log.FromCtx(ctx)

	for i, chunk := range splitAnswer(conv.DefuseMassMentions(text)) {
		msg := &discordgo.MessageSend{
			Content:         chunk,
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		}
		if i == 0 {
			msg.Reference = m.Reference()
		}
		if _, err := b.api.ChannelMessageSendComplex(m.ChannelID, msg); err != nil {
			logger.Error().Err(err).Int("chunk", i).Str("channel", m.ChannelID).Msg("failed to send discord reply")
			return
		}
	}
}

// notify posts a plain status line to a channel.
func (b *Bot) notify(ctx context.Context, channelID, text string) {
	msg := &discordgo.MessageSend{Content: text, AllowedMentions: &discordgo.MessageAllowedMentions{}}
	if _, err := b.api.ChannelMessageSendComplex(channelID, msg); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Str("channel", channelID).Msg("failed to send discord notice")
	}
}

// splitAnswer keeps answers up to 2000 runes whole and cuts longer ones
// into 1990-rune chunks.
func splitAnswer(text string) []string {
	runes := []rune(text)
	if len(runes) <= maxMessageLen {
		return []string{text}
	}

	chunks := make([]string, 0, len(runes)/chunkLen+1)
	for len(runes) > 0 {
		n := min(chunkLen, len(runes))
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}
	return chunks
}
