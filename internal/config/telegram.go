package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/archivist/pkg/log"
)

type TelegramConfig struct {
	Token string `env:"ARCHIVIST_TELEGRAM_TOKEN,required,notEmpty"`
	// AdminIDs may run backfill-style admin commands.
	AdminIDs []int64 `env:"ARCHIVIST_TELEGRAM_ADMIN_IDS" envSeparator:","`
}

func NewTelegramConfig(ctx context.Context) *TelegramConfig {
	c := &TelegramConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Telegram config")
	}
	return c
}

func (c TelegramConfig) IsAdmin(id int64) bool {
	for _, a := range c.AdminIDs {
		if a == id {
			return true
		}
	}
	return false
}
