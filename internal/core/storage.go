package core

import (
	"context"
	"time"
)

// SearchRequest is what the Retriever hands to a RecordStore.
// Terms are combined with logical OR. A zero Since means no recency bound.
type SearchRequest struct {
	Scope string
	Terms []string
	Since time.Time
	Limit int
}

// RecordStore is the persistent record set consumed by the retrieval pipeline.
type RecordStore interface {
	// Search returns records matching any of the terms, best first when the
	// backend can rank, otherwise in backend order with a nil Score.
	Search(ctx context.Context, req SearchRequest) ([]Record, error)
}

// RecordWriter is the ingestion side of the store.
type RecordWriter interface {
	SaveRecord(ctx context.Context, rec Record) error
}

// RecordBrowser backs direct search and store statistics.
type RecordBrowser interface {
	FindByContent(ctx context.Context, scope, text string, limit int) ([]Record, error)
	Stats(ctx context.Context) (Stats, error)
}

// Archive is the full store surface a backend implements.
type Archive interface {
	RecordStore
	RecordWriter
	RecordBrowser
	Ping(ctx context.Context) error
	Close() error
}

type ChannelCount struct {
	Channel string `json:"channel"`
	Count   int64  `json:"count"`
}

type Stats struct {
	TotalRecords int64          `json:"total_records"`
	Oldest       *time.Time     `json:"oldest,omitempty"`
	Newest       *time.Time     `json:"newest,omitempty"`
	Channels     []ChannelCount `json:"channels"`
	Attachments  int64          `json:"attachments"`
}
