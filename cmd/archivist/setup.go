package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sandevgo/archivist/internal/config"
	"github.com/sandevgo/archivist/internal/core"
	"github.com/sandevgo/archivist/internal/providers/llm"
	"github.com/sandevgo/archivist/internal/service/agent"
	"github.com/sandevgo/archivist/internal/service/command"
	"github.com/sandevgo/archivist/internal/service/generator"
	"github.com/sandevgo/archivist/internal/service/ingest"
	"github.com/sandevgo/archivist/internal/service/limiter"
	"github.com/sandevgo/archivist/internal/service/memory"
	"github.com/sandevgo/archivist/internal/service/prompt"
	"github.com/sandevgo/archivist/internal/service/retrieval"
	"github.com/sandevgo/archivist/internal/storage/postgres"
	"github.com/sandevgo/archivist/internal/storage/redis"
	"github.com/sandevgo/archivist/internal/storage/sqlite"
	"github.com/sandevgo/archivist/internal/transport/api"
	"github.com/sandevgo/archivist/internal/transport/discord"
	"github.com/sandevgo/archivist/internal/transport/telegram"
	"github.com/sandevgo/archivist/pkg/log"
	"github.com/sandevgo/archivist/pkg/retry"
	"github.com/sandevgo/archivist/pkg/srv"
)

// App is the answering pipeline plus the resources it owns. Services are
// listed in start order and shut down in reverse.
type App struct {
	Config   *config.AppConfig
	Archive  core.Archive
	Agent    *agent.Agent
	// Pipeline is Agent with answers serialized per user. Every transport
	// goes through it.
	Pipeline *agent.Serialized
	Commands []core.Command
	Ingestor *ingest.Ingestor
	Services []srv.Service
}

func NewApp(ctx context.Context) *App {
	logger := log.FromCtx(ctx)

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	ragCfg := config.NewRAGConfig(ctx)
	llmCfg := config.NewLLMConfig(ctx)

	app := &App{Config: appCfg}

	// 2. Storage
	archive, err := initStorage(ctx, appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	app.Archive = archive
	app.Services = append(app.Services, srv.NewCleanup("store", archive.Close))

	// 3. Language model
	client, err := llm.NewClient(ctx, llmCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}
	if !llmCfg.HasCredential() {
		logger.Warn().Str("provider", llmCfg.Provider).Msg("no API key configured, questions will not be answered")
	}

	gen := generator.NewGenerator(client, generator.Config{
		Model:       llmCfg.Model,
		Temperature: llmCfg.Temperature,
		MaxTokens:   llmCfg.MaxTokens,
		Timeout:     llmCfg.Timeout,
		Configured:  llmCfg.HasCredential(),
	})

	// 4. Answering pipeline
	app.Agent = agent.NewAgent(
		agent.Config{
			MaxResults: ragCfg.MaxContextMessages,
			MaxDays:    ragCfg.MaxContextDays,
		},
		retrieval.NewRetriever(archive),
		prompt.NewAssembler(ragCfg.MaxContextLength),
		gen,
		memory.NewConversations(ragCfg.ConversationHistoryLimit),
	)

	rl, closeLimiter := initLimiter(ctx, appCfg)
	if rl != nil {
		app.Agent.WithLimiter(rl)
	}
	if closeLimiter != nil {
		app.Services = append(app.Services, srv.NewCleanup("limiter", closeLimiter))
	}

	app.Pipeline = agent.Serialize(app.Agent)
	app.Commands = command.NewCommands(app.Pipeline, archive)
	return app
}

func initStorage(ctx context.Context, cfg *config.AppConfig) (core.Archive, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		db, err := sqlite.NewDB(ctx, cfg.GetDatabasePath())
		if err != nil {
			return nil, err
		}
		log.FromCtx(ctx).Info().Str("path", cfg.GetDatabasePath()).Msg("using sqlite record store")
		return sqlite.NewRecordsRepo(db), nil
	case config.StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("postgres store requires ARCHIVIST_DATABASE_URL")
		}
		store, err := postgres.NewStore(ctx, postgres.Options{
			URL:      cfg.DatabaseURL,
			MinConns: cfg.DBMinConns,
			MaxConns: cfg.DBMaxConns,
			Connect:  retry.NewDefaultConfig(),
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.StoreDriver)
	}
}

// initLimiter prefers a shared redis window and falls back to an
// in-process bucket. A zero rate disables limiting.
func initLimiter(ctx context.Context, cfg *config.AppConfig) (core.RateLimiter, func() error) {
	if cfg.AskRatePerMin <= 0 {
		return nil, nil
	}
	logger := log.FromCtx(ctx)

	if cfg.RedisURL != "" {
		rl, err := redis.NewLimiter(ctx, cfg.RedisURL, cfg.AskRatePerMin, time.Minute)
		if err == nil {
			logger.Info().Int("per_minute", cfg.AskRatePerMin).Msg("using redis rate limiter")
			return rl, rl.Close
		}
		logger.Warn().Err(err).Msg("redis unavailable, using in-process rate limiter")
	}
	return limiter.NewLocal(cfg.AskRatePerMin, time.Minute), nil
}

// NewServices adds the enabled transports to the app's services.
func NewServices(ctx context.Context, app *App) []srv.Service {
	logger := log.FromCtx(ctx)
	services := append([]srv.Service{}, app.Services...)

	if app.Config.EnableDiscord {
		dcCfg := config.NewDiscordConfig(ctx)
		ingestor := ingest.NewIngestor(app.Archive, dcCfg.FetchDelay)
		bot, err := discord.NewBot(ctx, dcCfg, app.Pipeline, ingestor, app.Commands)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize discord bot")
		}
		services = append(services, bot)
	}

	if app.Config.EnableTelegram {
		tgCfg := config.NewTelegramConfig(ctx)
		router := command.NewRouter("/", true, app.Commands...)
		bot, err := telegram.NewBot(ctx, tgCfg, app.Pipeline, router, ingest.NewIngestor(app.Archive, 0))
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize telegram bot")
		}
		services = append(services, bot)
	}

	if app.Config.EnableHTTP {
		services = append(services, api.NewServer(ctx, app.Config.HTTPAddr, api.NewHandler(app.Pipeline, app.Archive)))
	}

	return services
}

func loadEnv(runtimePath string) error {
	envFile := filepath.Join(runtimePath, ".env")
	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(envFile)
}
