package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/archivist/pkg/log"
)

type RAGConfig struct {
	MaxContextMessages       int `env:"ARCHIVIST_MAX_CONTEXT_MESSAGES" envDefault:"20"`
	MaxContextDays           int `env:"ARCHIVIST_MAX_CONTEXT_DAYS" envDefault:"30"`
	MaxContextLength         int `env:"ARCHIVIST_MAX_CONTEXT_LENGTH" envDefault:"12000"`
	ConversationHistoryLimit int `env:"ARCHIVIST_CONVERSATION_HISTORY_LIMIT" envDefault:"5"`
}

func NewRAGConfig(ctx context.Context) *RAGConfig {
	cfg := &RAGConfig{}
	if err := env.Parse(cfg); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse RAG config")
	}
	return cfg
}
