package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/archivist/internal/core"
	"github.com/sandevgo/archivist/internal/metrics"
	"github.com/sandevgo/archivist/pkg/log"
)

const (
	SourceLive     = "live"
	SourceEdit     = "edit"
	SourceBackfill = "backfill"

	// pageSize is the largest page chat platforms hand out per history call.
	pageSize = 100
)

// PageFunc returns up to limit records older than before, newest first.
// An empty before means start from the newest record.
type PageFunc func(ctx context.Context, before string, limit int) ([]core.Record, error)

type Ingestor struct {
	store core.RecordWriter
	pause time.Duration
}

func NewIngestor(store core.RecordWriter, pause time.Duration) *Ingestor {
	return &Ingestor{store: store, pause: pause}
}

// Store upserts one record; edits go through here too.
func (i *Ingestor) Store(ctx context.Context, rec core.Record, source string) error {
	if err := i.store.SaveRecord(ctx, rec); err != nil {
		return fmt.Errorf("store record: %w", err)
	}
	metrics.RecordsIngested.WithLabelValues(source).Inc()
	return nil
}

type BackfillRequest struct {
	Channel string
	Limit   int
	// Since stops the walk at records older than this. Zero means no bound.
	Since time.Time
}

// Backfill walks a channel's history newest to oldest and stores each
// record, pausing after every page to stay under platform rate limits.
// It returns the number of records stored.
func (i *Ingestor) Backfill(ctx context.Context, req BackfillRequest, fetch PageFunc) (int, error) {
	logger := log.FromCtx(ctx).With().Str("channel", req.Channel).Logger()

	var (
		stored int
		before string
	)
	for req.Limit <= 0 || stored < req.Limit {
		n := pageSize
		if req.Limit > 0 && req.Limit-stored < n {
			n = req.Limit - stored
		}

		page, err := fetch(ctx, before, n)
		if err != nil {
			return stored, fmt.Errorf("fetch history page: %w", err)
		}
		if len(page) == 0 {
			break
		}

		for _, rec := range page {
			if !req.Since.IsZero() && rec.CreatedAt.Before(req.Since) {
				logger.Info().Int("stored", stored).Msg("reached backfill horizon")
				return stored, nil
			}
			if err := i.Store(ctx, rec, SourceBackfill); err != nil {
				return stored, err
			}
			stored++
		}
		before = page[len(page)-1].ID

		logger.Info().Int("stored", stored).Msg("backfill progress")
		if len(page) < n {
			break
		}

		if i.pause > 0 {
			select {
			case <-ctx.Done():
				return stored, ctx.Err()
			case <-time.After(i.pause):
			}
		}
	}

	return stored, nil
}
