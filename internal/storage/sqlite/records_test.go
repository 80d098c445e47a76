package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/sandevgo/archivist/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *RecordsRepo {
	t.Helper()
	db, err := NewDB(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRecordsRepo(db)
}

func seed(t *testing.T, repo *RecordsRepo, recs ...core.Record) {
	t.Helper()
	for _, rec := range recs {
		require.NoError(t, repo.SaveRecord(context.Background(), rec))
	}
}

func TestRecordsRepo_Search(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	repo := newTestRepo(t)
	seed(t, repo,
		core.Record{ID: "1", Scope: "g1", ChannelName: "general", AuthorName: "ann", Content: "Deploy window is Friday", CreatedAt: now.Add(-2 * time.Hour)},
		core.Record{ID: "2", Scope: "g1", ChannelName: "ops", AuthorName: "bob", Content: "the database migration failed", CreatedAt: now.Add(-1 * time.Hour)},
		core.Record{ID: "3", Scope: "g2", ChannelName: "general", AuthorName: "cid", Content: "deploy in other guild", CreatedAt: now},
		core.Record{ID: "4", Scope: "g1", ChannelName: "general", AuthorName: "dee", Content: "old deploy notes", CreatedAt: now.AddDate(0, 0, -40)},
		core.Record{ID: "5", Scope: "g1", ChannelName: "general", AuthorName: "eve", Content: "100% done_ish", CreatedAt: now},
		core.Record{ID: "6", Scope: "g3", ChannelName: "allgemein", AuthorName: "jörg", Content: "Über den Release reden wir Montag", CreatedAt: now},
	)

	tests := []struct {
		name string
		req  core.SearchRequest
		want []string
	}{
		{
			name: "or match newest first",
			req:  core.SearchRequest{Scope: "g1", Terms: []string{"deploy", "database"}, Limit: 10},
			want: []string{"2", "1", "4"},
		},
		{
			name: "recency bound",
			req:  core.SearchRequest{Scope: "g1", Terms: []string{"deploy"}, Since: now.AddDate(0, 0, -30), Limit: 10},
			want: []string{"1"},
		},
		{
			name: "limit",
			req:  core.SearchRequest{Scope: "g1", Terms: []string{"deploy", "database"}, Limit: 1},
			want: []string{"2"},
		},
		{
			name: "scope isolation",
			req:  core.SearchRequest{Scope: "g2", Terms: []string{"deploy"}, Limit: 10},
			want: []string{"3"},
		},
		{
			name: "wildcards are literal",
			req:  core.SearchRequest{Scope: "g1", Terms: []string{"0% d"}, Limit: 10},
			want: []string{"5"},
		},
		{
			name: "non-ascii terms fold case",
			req:  core.SearchRequest{Scope: "g3", Terms: []string{"über"}, Limit: 10},
			want: []string{"6"},
		},
		{
			name: "non-ascii upper term",
			req:  core.SearchRequest{Scope: "g3", Terms: []string{"ÜBER"}, Limit: 10},
			want: []string{"6"},
		},
		{
			name: "no terms",
			req:  core.SearchRequest{Scope: "g1", Limit: 10},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Search(context.Background(), tt.req)
			require.NoError(t, err)

			var ids []string
			for _, rec := range got {
				ids = append(ids, rec.ID)
				assert.False(t, rec.HasScore())
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestRecordsRepo_SaveRecordUpserts(t *testing.T) {
	repo := newTestRepo(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	seed(t, repo, core.Record{ID: "m1", Scope: "g", ChannelName: "c", AuthorName: "a", Content: "first draft", CreatedAt: created})
	seed(t, repo, core.Record{ID: "m1", Scope: "g", ChannelName: "c", AuthorName: "a", Content: "edited text", CreatedAt: created, Pinned: true})

	got, err := repo.FindByContent(context.Background(), "g", "EDITED", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "edited text", got[0].Content)
	assert.True(t, got[0].Pinned)
	assert.True(t, created.Equal(got[0].CreatedAt))

	got, err = repo.FindByContent(context.Background(), "g", "draft", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecordsRepo_FindByContentFoldsUnicode(t *testing.T) {
	repo := newTestRepo(t)
	seed(t, repo, core.Record{ID: "m1", Scope: "g", Content: "ÉQUIPE ÖSTERREICH", CreatedAt: time.Now()})

	got, err := repo.FindByContent(context.Background(), "g", "équipe österreich", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].ID)
}

func TestRecordsRepo_Stats(t *testing.T) {
	repo := newTestRepo(t)

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalRecords)
	assert.Nil(t, stats.Oldest)

	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	seed(t, repo,
		core.Record{ID: "1", ChannelName: "general", CreatedAt: t1, Attachments: 2},
		core.Record{ID: "2", ChannelName: "general", CreatedAt: t2},
		core.Record{ID: "3", ChannelName: "random", CreatedAt: t2},
	)

	stats, err = repo.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalRecords)
	assert.EqualValues(t, 2, stats.Attachments)
	require.NotNil(t, stats.Oldest)
	require.NotNil(t, stats.Newest)
	assert.True(t, t1.Equal(*stats.Oldest))
	assert.True(t, t2.Equal(*stats.Newest))
	assert.Equal(t, []core.ChannelCount{{Channel: "general", Count: 2}, {Channel: "random", Count: 1}}, stats.Channels)
}
