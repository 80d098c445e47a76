package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sandevgo/archivist/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePipeline struct {
	asked   []string
	cleared []string
}

func (f *fakePipeline) Answer(_ context.Context, userID, scope, question string) string {
	f.asked = append(f.asked, fmt.Sprintf("%s|%s|%s", userID, scope, question))
	return "answer"
}

func (f *fakePipeline) ClearHistory(userID string) {
	f.cleared = append(f.cleared, userID)
}

type fakeBrowser struct {
	records []core.Record
	stats   core.Stats
	err     error
}

func (f *fakeBrowser) FindByContent(_ context.Context, _, _ string, limit int) ([]core.Record, error) {
	if len(f.records) > limit {
		return f.records[:limit], f.err
	}
	return f.records, f.err
}

func (f *fakeBrowser) Stats(context.Context) (core.Stats, error) {
	return f.stats, f.err
}

func newTestRouter(prefix string, reportUnknown bool) (*Router, *fakePipeline, *fakeBrowser) {
	p := &fakePipeline{}
	b := &fakeBrowser{}
	return NewRouter(prefix, reportUnknown, NewCommands(p, b)...), p, b
}

func TestRouter_Execute(t *testing.T) {
	r, p, _ := newTestRouter("!", false)
	req := core.Request{UserID: "u1", Scope: "g1"}

	tests := []struct {
		name    string
		input   string
		handled bool
		want    string
	}{
		{"not a command", "hello there", false, ""},
		{"unknown ignored", "!play music", false, ""},
		{"bare prefix", "!", false, ""},
		{"ask", "!ask  when is the deploy? ", true, "answer"},
		{"ask newline", "!ask\nmultiline question", true, "answer"},
		{"clear", "!clear", true, "Your conversation history has been cleared."},
		{"admin only", "!db_status", true, adminRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, handled := r.Execute(context.Background(), req, tt.input)
			assert.Equal(t, tt.handled, handled)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, []string{"u1|g1|when is the deploy?", "u1|g1|multiline question"}, p.asked)
	assert.Equal(t, []string{"u1"}, p.cleared)
}

func TestRouter_ReportUnknownAndBotSuffix(t *testing.T) {
	r, p, _ := newTestRouter("/", true)

	got, handled := r.Execute(context.Background(), core.Request{UserID: "7"}, "/nope")
	assert.True(t, handled)
	assert.Equal(t, "Unknown command: /nope", got)

	_, handled = r.Execute(context.Background(), core.Request{UserID: "7"}, "/ask@archivist_bot hi there")
	assert.True(t, handled)
	assert.Equal(t, []string{"7||hi there"}, p.asked)
}

func TestRouter_CommandError(t *testing.T) {
	r, _, b := newTestRouter("!", false)
	b.err = errors.New("db closed")

	got, handled := r.Execute(context.Background(), core.Request{Admin: true}, "!db_status")
	assert.True(t, handled)
	assert.NotContains(t, got, "db closed")
	assert.Contains(t, got, errCommandFailed.Error())
}

type argsCommand struct{}

func (argsCommand) Name() string        { return "fetch" }
func (argsCommand) Usage() string       { return "fetch [limit]" }
func (argsCommand) Description() string { return "test command" }
func (argsCommand) AdminOnly() bool     { return false }
func (argsCommand) Execute(context.Context, core.Request, string) (string, error) {
	return "", fmt.Errorf("%w: limit must be a positive number", core.ErrInvalidArgs)
}

func TestRouter_InvalidArgsShowUsage(t *testing.T) {
	r := NewRouter("!", false, argsCommand{})

	got, handled := r.Execute(context.Background(), core.Request{}, "!fetch many")
	assert.True(t, handled)
	assert.Contains(t, got, "limit must be a positive number")
	assert.Contains(t, got, "`!fetch [limit]`")
}

func TestSearchCommand(t *testing.T) {
	b := &fakeBrowser{}
	cmd := NewSearchCommand(b)
	ctx := context.Background()

	got, err := cmd.Execute(ctx, core.Request{Scope: "g"}, "deadline")
	require.NoError(t, err)
	assert.Equal(t, "No messages found containing 'deadline'.", got)

	long := strings.Repeat("x", 250)
	for i := 0; i < 12; i++ {
		b.records = append(b.records, core.Record{
			AuthorName: "ann", ChannelName: "general", Content: long,
			CreatedAt: time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC),
		})
	}
	got, err = cmd.Execute(ctx, core.Request{Scope: "g"}, "deadline")
	require.NoError(t, err)
	assert.Contains(t, got, "Search Results for 'deadline'")
	assert.Contains(t, got, "Found 10 messages")
	assert.Contains(t, got, "1. ann in #general (2024-02-03 04:05)\n"+strings.Repeat("x", 200)+"...")
	assert.NotContains(t, got, "11. ")
}

func TestFormatStats(t *testing.T) {
	assert.Contains(t, FormatStats(core.Stats{}), "No messages stored yet.")

	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	out := FormatStats(core.Stats{
		TotalRecords: 3,
		Oldest:       &t1,
		Newest:       &t2,
		Channels:     []core.ChannelCount{{Channel: "general", Count: 2}, {Channel: "ops", Count: 1}},
		Attachments:  4,
	})
	assert.Contains(t, out, "Total messages stored: 3")
	assert.Contains(t, out, "Date range: 2024-01-01 00:00:00 to 2024-02-01 00:00:00")
	assert.Contains(t, out, "#general: 2 messages\n#ops: 1 messages")
	assert.Contains(t, out, "Attachments: 4 stored")
}

func TestHelpCommand(t *testing.T) {
	r, _, _ := newTestRouter("!", false)

	got, handled := r.Execute(context.Background(), core.Request{}, "!help_rag")
	require.True(t, handled)
	assert.Contains(t, got, "!ask [question]")
	assert.Contains(t, got, "!search [term]")
	assert.Contains(t, got, "!clear")
	assert.NotContains(t, got, "db_status")

	got, _ = r.Execute(context.Background(), core.Request{Admin: true}, "!help_rag")
	assert.Contains(t, got, "!db_status")
}
