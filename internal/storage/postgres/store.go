package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sandevgo/archivist/internal/core"
	"github.com/sandevgo/archivist/pkg/log"
	"github.com/sandevgo/archivist/pkg/retry"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const recordColumns = `id, scope, channel_id, channel_name, author_id, author_name, content, created_at, pinned, reply_to, attachments`

type Options struct {
	URL      string
	MinConns int32
	MaxConns int32
	// Connect controls how hard we try to reach the server on startup.
	Connect *retry.Config
}

// Store is the ranked record store. Matching and scoring happen inside
// postgres full text search, so every result carries a score.
type Store struct {
	pool *pgxpool.Pool
}

var _ core.Archive = (*Store)(nil)

func NewStore(ctx context.Context, opts Options) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}

	var pool *pgxpool.Pool
	logger := log.FromCtx(ctx)
	retrier := retry.NewRetrier(opts.Connect)
	err = retrier.Do(ctx, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return retry.Permanent(err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			logger.Warn().Err(err).Msg("postgres not reachable yet")
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{pool: pool}, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations,
		goose.WithLogger(log.NewGooseLoggerFromCtx(ctx)),
	)
	if err != nil {
		return fmt.Errorf("failed to create goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}
	for _, res := range results {
		log.FromCtx(ctx).Debug().
			Str("component", "migrations").
			Int64("version", res.Source.Version).
			Dur("took", res.Duration).
			Msg("migration applied")
	}
	return nil
}

func (s *Store) SaveRecord(ctx context.Context, rec core.Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			pinned = EXCLUDED.pinned,
			attachments = EXCLUDED.attachments
	`, rec.ID, rec.Scope, rec.ChannelID, rec.ChannelName, rec.AuthorID, rec.AuthorName,
		rec.Content, rec.CreatedAt.UTC(), rec.Pinned, rec.ReplyTo, rec.Attachments)
	if err != nil {
		return fmt.Errorf("failed to save record %s: %w", rec.ID, err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, req core.SearchRequest) ([]core.Record, error) {
	tsq := orTSQuery(req.Terms)
	if tsq == "" {
		return nil, nil
	}

	var since *time.Time
	if !req.Since.IsZero() {
		t := req.Since.UTC()
		since = &t
	}
	var limit *int
	if req.Limit > 0 {
		limit = &req.Limit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+recordColumns+`, ts_rank_cd(to_tsvector('english', content), q) AS score
		FROM records, to_tsquery('english', $2) q
		WHERE scope = $1
		  AND to_tsvector('english', content) @@ q
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		ORDER BY score DESC, created_at DESC
		LIMIT $4
	`, req.Scope, tsq, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search records: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Record, error) {
		var (
			rec   core.Record
			score float64
		)
		err := row.Scan(
			&rec.ID, &rec.Scope, &rec.ChannelID, &rec.ChannelName, &rec.AuthorID, &rec.AuthorName,
			&rec.Content, &rec.CreatedAt, &rec.Pinned, &rec.ReplyTo, &rec.Attachments, &score,
		)
		return rec.WithScore(score), err
	})
}

func (s *Store) FindByContent(ctx context.Context, scope, text string, limit int) ([]core.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+recordColumns+`
		FROM records
		WHERE scope = $1 AND content ILIKE '%' || $2 || '%'
		ORDER BY created_at DESC
		LIMIT $3
	`, scope, escapeLike(text), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find records: %w", err)
	}

	return pgx.CollectRows(rows, scanRecord)
}

func (s *Store) Stats(ctx context.Context) (core.Stats, error) {
	var stats core.Stats
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), MIN(created_at), MAX(created_at), COALESCE(SUM(attachments), 0)
		FROM records
	`).Scan(&stats.TotalRecords, &stats.Oldest, &stats.Newest, &stats.Attachments)
	if err != nil {
		return core.Stats{}, fmt.Errorf("failed to read record totals: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT channel_name, COUNT(*) AS c
		FROM records
		GROUP BY channel_name
		ORDER BY c DESC, channel_name
	`)
	if err != nil {
		return core.Stats{}, fmt.Errorf("failed to query channel counts: %w", err)
	}

	stats.Channels, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.ChannelCount, error) {
		var cc core.ChannelCount
		err := row.Scan(&cc.Channel, &cc.Count)
		return cc, err
	})
	if err != nil {
		return core.Stats{}, fmt.Errorf("failed to scan channel counts: %w", err)
	}
	return stats, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func scanRecord(row pgx.CollectableRow) (core.Record, error) {
	var rec core.Record
	err := row.Scan(
		&rec.ID, &rec.Scope, &rec.ChannelID, &rec.ChannelName, &rec.AuthorID, &rec.AuthorName,
		&rec.Content, &rec.CreatedAt, &rec.Pinned, &rec.ReplyTo, &rec.Attachments,
	)
	return rec, err
}
