package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sandevgo/archivist/internal/core"
	"github.com/sandevgo/archivist/internal/service/memory"
	"github.com/sandevgo/archivist/internal/service/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRetriever struct {
	records []core.Record
	last    core.Query
}

func (f *fakeRetriever) Retrieve(_ context.Context, q core.Query) []core.Record {
	f.last = q
	return f.records
}

type fakeGenerator struct {
	answer  string
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, p string) string {
	f.prompts = append(f.prompts, p)
	return f.answer
}

type fakeLimiter struct {
	allow bool
	err   error
}

func (f fakeLimiter) Allow(context.Context, string) (bool, error) { return f.allow, f.err }

func newTestAgent(records []core.Record, answer string) (*Agent, *fakeRetriever, *fakeGenerator, *memory.Conversations) {
	r := &fakeRetriever{records: records}
	g := &fakeGenerator{answer: answer}
	c := memory.NewConversations(5)
	a := NewAgent(Config{MaxResults: 20, MaxDays: 30}, r, prompt.NewAssembler(12000), g, c)
	return a, r, g, c
}

func TestAnswer_NoHistorySkipsGenerator(t *testing.T) {
	a, r, g, c := newTestAgent(nil, "unused")

	got := a.Answer(context.Background(), "u1", "guild", "when is the deploy?")

	assert.Equal(t, core.AnswerNoHistory, got)
	assert.Empty(t, g.prompts)
	assert.Equal(t, core.Query{Text: "when is the deploy?", Scope: "guild", MaxDays: 30, MaxResults: 20}, r.last)
	assert.Equal(t, "User: when is the deploy?\nBot: "+core.AnswerNoHistory, c.History("u1"))
}

func TestAnswer_Generated(t *testing.T) {
	rec := core.Record{
		ID: "1", AuthorName: "ann", ChannelName: "ops", Content: "deploy is friday",
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	a, _, g, c := newTestAgent([]core.Record{rec}, "Friday.")

	got := a.Answer(context.Background(), "u1", "guild", "  when is the deploy?  ")
	assert.Equal(t, "Friday.", got)

	require.Len(t, g.prompts, 1)
	p := g.prompts[0]
	assert.Contains(t, p, "QUESTION: when is the deploy?")
	assert.Contains(t, p, "[2024-01-02 03:04:05] ann in #ops: deploy is friday")
	assert.True(t, strings.HasSuffix(p, "\n\nRecent conversation history:\nUser: when is the deploy?"))

	assert.Equal(t, "User: when is the deploy?\nBot: Friday.", c.History("u1"))
}

func TestAnswer_IncludesEarlierTurns(t *testing.T) {
	a, _, g, _ := newTestAgent([]core.Record{{Content: "x"}}, "ok")

	a.Answer(context.Background(), "u1", "g", "first question")
	a.Answer(context.Background(), "u1", "g", "second question")

	require.Len(t, g.prompts, 2)
	assert.Contains(t, g.prompts[1], "User: first question\nBot: ok\nUser: second question")
}

func TestAnswer_EmptyQuestion(t *testing.T) {
	a, _, g, c := newTestAgent([]core.Record{{Content: "x"}}, "ok")

	assert.Equal(t, core.AnswerEmptyQuestion, a.Answer(context.Background(), "u1", "g", "   "))
	assert.Empty(t, g.prompts)
	assert.Equal(t, "", c.History("u1"))
}

func TestAnswer_RateLimited(t *testing.T) {
	a, _, g, _ := newTestAgent([]core.Record{{Content: "x"}}, "ok")

	a.WithLimiter(fakeLimiter{allow: false})
	assert.Equal(t, core.AnswerRateLimited, a.Answer(context.Background(), "u1", "g", "question"))
	assert.Empty(t, g.prompts)

	a.WithLimiter(fakeLimiter{err: errors.New("redis down")})
	assert.Equal(t, "ok", a.Answer(context.Background(), "u1", "g", "question"))
}

func TestClearHistory(t *testing.T) {
	a, _, _, _ := newTestAgent(nil, "")
	a.Answer(context.Background(), "u1", "g", "anything here")
	require.NotEmpty(t, a.History("u1"))

	a.ClearHistory("u1")
	assert.Equal(t, "", a.History("u1"))
}
