package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/archivist/internal/core"
)

const recordColumns = `id, scope, channel_id, channel_name, author_id, author_name, content, created_at, pinned, reply_to, attachments`

// RecordsRepo is the embedded record store. It matches terms with LIKE and
// does not rank, so results come back newest first without a score.
type RecordsRepo struct {
	db *sql.DB
}

func NewRecordsRepo(db *sql.DB) *RecordsRepo {
	return &RecordsRepo{db: db}
}

func (r *RecordsRepo) SaveRecord(ctx context.Context, rec core.Record) error {
	query := `INSERT INTO records (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			pinned = excluded.pinned,
			attachments = excluded.attachments`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Scope, rec.ChannelID, rec.ChannelName, rec.AuthorID, rec.AuthorName,
		rec.Content, rec.CreatedAt.UTC().UnixMilli(), rec.Pinned, rec.ReplyTo, rec.Attachments,
	)
	if err != nil {
		return fmt.Errorf("failed to save record %s: %w", rec.ID, err)
	}
	return nil
}

func (r *RecordsRepo) Search(ctx context.Context, req core.SearchRequest) ([]core.Record, error) {
	if len(req.Terms) == 0 {
		return nil, nil
	}

	var (
		where = []string{"scope = ?"}
		args  = []any{req.Scope}
		match = make([]string, 0, len(req.Terms))
	)
	for _, term := range req.Terms {
		match = append(match, `fold(content) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(term))+"%")
	}
	where = append(where, "("+strings.Join(match, " OR ")+")")

	if !req.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, req.Since.UTC().UnixMilli())
	}

	query := `SELECT ` + recordColumns + ` FROM records WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC`
	if req.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, req.Limit)
	}

	return r.query(ctx, query, args...)
}

func (r *RecordsRepo) FindByContent(ctx context.Context, scope, text string, limit int) ([]core.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records
		WHERE scope = ? AND fold(content) LIKE ? ESCAPE '\'
		ORDER BY created_at DESC LIMIT ?`

	return r.query(ctx, query, scope, "%"+escapeLike(strings.ToLower(text))+"%", limit)
}

func (r *RecordsRepo) Stats(ctx context.Context) (core.Stats, error) {
	var (
		stats          core.Stats
		oldest, newest sql.NullInt64
		attachments    sql.NullInt64
	)

	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*), MIN(created_at), MAX(created_at), SUM(attachments) FROM records`)
	if err := row.Scan(&stats.TotalRecords, &oldest, &newest, &attachments); err != nil {
		return core.Stats{}, fmt.Errorf("failed to read record totals: %w", err)
	}
	if oldest.Valid {
		t := time.UnixMilli(oldest.Int64).UTC()
		stats.Oldest = &t
	}
	if newest.Valid {
		t := time.UnixMilli(newest.Int64).UTC()
		stats.Newest = &t
	}
	stats.Attachments = attachments.Int64

	rows, err := r.db.QueryContext(ctx, `SELECT channel_name, COUNT(*) AS c FROM records GROUP BY channel_name ORDER BY c DESC, channel_name`)
	if err != nil {
		return core.Stats{}, fmt.Errorf("failed to query channel counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cc core.ChannelCount
		if err := rows.Scan(&cc.Channel, &cc.Count); err != nil {
			return core.Stats{}, fmt.Errorf("failed to scan channel count: %w", err)
		}
		stats.Channels = append(stats.Channels, cc)
	}
	return stats, rows.Err()
}

func (r *RecordsRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *RecordsRepo) Close() error {
	return r.db.Close()
}

func (r *RecordsRepo) query(ctx context.Context, query string, args ...any) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		var (
			rec     core.Record
			created int64
		)
		if err := rows.Scan(
			&rec.ID, &rec.Scope, &rec.ChannelID, &rec.ChannelName, &rec.AuthorID, &rec.AuthorName,
			&rec.Content, &created, &rec.Pinned, &rec.ReplyTo, &rec.Attachments,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.CreatedAt = time.UnixMilli(created).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
