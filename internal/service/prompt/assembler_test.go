package prompt

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sandevgo/archivist/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_Empty(t *testing.T) {
	a := NewAssembler(12000)
	assert.Equal(t, "No relevant message history found.", a.Process(nil))
	assert.Equal(t, "No relevant message history found.", a.Process([]core.Record{}))
}

func TestProcess_SortsAscending(t *testing.T) {
	t1 := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	records := []core.Record{
		{ID: "2", AuthorName: "bob", ChannelName: "ops", Content: "second", CreatedAt: t2},
		{ID: "1", AuthorName: "ann", ChannelName: "general", Content: "", CreatedAt: t1},
	}

	got := NewAssembler(12000).Process(records)

	assert.Equal(t,
		"[2024-01-02 03:04:05] ann in #general: [No text content]\n"+
			"[2024-01-02 04:04:05] bob in #ops: second",
		got)
	assert.Equal(t, "2", records[0].ID, "input is not reordered")
}

func TestProcess_Truncates(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var records []core.Record
	for i := 0; i < 200; i++ {
		records = append(records, core.Record{
			AuthorName:  "user",
			ChannelName: "chan",
			Content:     strings.Repeat("ü", 50),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
	}

	for _, max := range []int{1, 50, 99, 100, 101, 150, 500, 4000} {
		got := NewAssembler(max).Process(records)
		assert.LessOrEqual(t, utf8.RuneCountInString(got), max, "max=%d", max)
	}

	got := NewAssembler(4000).Process(records)
	require.True(t, strings.HasSuffix(got, "\n[Context truncated due to length...]"))
	assert.Equal(t, 3900, utf8.RuneCountInString(strings.TrimSuffix(got, "\n[Context truncated due to length...]")))
}

func TestProcess_FitsUntouched(t *testing.T) {
	rec := core.Record{AuthorName: "a", ChannelName: "c", Content: "short", CreatedAt: time.Unix(0, 0).UTC()}
	got := NewAssembler(1000).Process([]core.Record{rec})
	assert.NotContains(t, got, "truncated")
}

func TestCreatePrompt(t *testing.T) {
	a := NewAssembler(100)
	p := a.CreatePrompt("When is the deploy?", "[ctx line]")

	assert.True(t, strings.HasPrefix(p, "Based on the following message history from the Discord server"))
	assert.Contains(t, p, "QUESTION: When is the deploy?\n\nRELEVANT MESSAGE HISTORY:\n[ctx line]\n\n")
	assert.Contains(t, p, "based only on the information provided")
}

func TestWithHistory(t *testing.T) {
	a := NewAssembler(100)
	assert.Equal(t, "prompt", a.WithHistory("prompt", ""))
	assert.Equal(t, "prompt\n\nRecent conversation history:\nUser: hi", a.WithHistory("prompt", "User: hi"))
}

func TestEstimateTokens(t *testing.T) {
	assert.Zero(t, EstimateTokens(""))
	assert.Positive(t, EstimateTokens("how many tokens is this sentence"))
}
