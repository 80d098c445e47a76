package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/archivist/pkg/log"
)

const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

type AppConfig struct {
	RuntimePath string `env:"ARCHIVIST_RUNTIME_PATH"`

	// Record store
	StoreDriver  string `env:"ARCHIVIST_STORE" envDefault:"sqlite"`
	DatabasePath string `env:"ARCHIVIST_SQLITE_PATH"`
	DatabaseURL  string `env:"ARCHIVIST_DATABASE_URL"`
	DBMinConns   int32  `env:"ARCHIVIST_DB_MIN_CONNS" envDefault:"5"`
	DBMaxConns   int32  `env:"ARCHIVIST_DB_MAX_CONNS" envDefault:"20"`

	// Optional redis for per-user rate limiting
	RedisURL      string `env:"ARCHIVIST_REDIS_URL"`
	AskRatePerMin int    `env:"ARCHIVIST_ASK_RATE_PER_MINUTE" envDefault:"10"`
	LogFile       string `env:"ARCHIVIST_LOG_FILE"`

	// Transport Flags
	EnableDiscord  bool   `env:"ARCHIVIST_ENABLE_DISCORD" envDefault:"false"`
	EnableTelegram bool   `env:"ARCHIVIST_ENABLE_TELEGRAM" envDefault:"false"`
	EnableHTTP     bool   `env:"ARCHIVIST_ENABLE_HTTP" envDefault:"true"`
	HTTPAddr       string `env:"ARCHIVIST_HTTP_ADDR" envDefault:":8080"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	if c.RuntimePath == "" {
		c.RuntimePath = GetRuntimePath()
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	if c.DatabasePath != "" {
		return c.DatabasePath
	}
	return filepath.Join(c.RuntimePath, "archivist.db")
}

func (c AppConfig) GetEnvPath() string {
	return filepath.Join(c.RuntimePath, ".env")
}

func (c AppConfig) IsPostgres() bool {
	return c.StoreDriver == StorePostgres
}
