package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/archivist/pkg/log"
)

type DiscordConfig struct {
	Token  string `env:"ARCHIVIST_DISCORD_TOKEN,required,notEmpty"`
	Prefix string `env:"ARCHIVIST_COMMAND_PREFIX" envDefault:"!"`
	// Backfill defaults for !fetch_history and !fetch_channel
	FetchLimit int           `env:"ARCHIVIST_FETCH_LIMIT" envDefault:"10000"`
	FetchDelay time.Duration `env:"ARCHIVIST_FETCH_DELAY" envDefault:"1s"`
}

func NewDiscordConfig(ctx context.Context) *DiscordConfig {
	c := &DiscordConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Discord config")
	}
	return c
}
