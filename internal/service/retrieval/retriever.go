package retrieval

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sandevgo/archivist/internal/core"
	"github.com/sandevgo/archivist/internal/metrics"
	"github.com/sandevgo/archivist/pkg/log"
)

// minTermLength drops short words (articles, "how", "the") from the store query.
const minTermLength = 4

// Retriever finds the records most relevant to a question.
type Retriever struct {
	store core.RecordStore
	now   func() time.Time
}

func NewRetriever(store core.RecordStore) *Retriever {
	return &Retriever{store: store, now: time.Now}
}

// Retrieve returns at most maxResults records, most relevant first.
// Store failures are logged and yield an empty result.
func (r *Retriever) Retrieve(ctx context.Context, q core.Query) []core.Record {
	logger := log.FromCtx(ctx)

	if q.MaxResults <= 0 {
		return nil
	}

	terms := SearchTerms(q.Text)
	if len(terms) == 0 {
		logger.Debug().Str("scope", q.Scope).Msg("question has no searchable terms")
		return nil
	}

	start := time.Now()
	records, err := r.store.Search(ctx, core.SearchRequest{
		Scope: q.Scope,
		Terms: terms,
		Since: q.Since(r.now()),
		Limit: q.MaxResults,
	})
	metrics.RetrievalDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RetrievalFailures.Inc()
		logger.Error().Err(err).Str("scope", q.Scope).Msg("record search failed")
		return nil
	}

	records = Rank(q.Text, records)
	if len(records) > q.MaxResults {
		records = records[:q.MaxResults]
	}

	metrics.RecordsRetrieved.Observe(float64(len(records)))
	logger.Debug().
		Str("scope", q.Scope).
		Strs("terms", terms).
		Int("found", len(records)).
		Msg("records retrieved")

	return records
}

// SearchTerms splits text on whitespace and keeps words longer than three
// characters, in order, without duplicates.
func SearchTerms(text string) []string {
	var (
		terms []string
		seen  = make(map[string]struct{})
	)
	for _, tok := range strings.Fields(text) {
		if utf8.RuneCountInString(tok) < minTermLength {
			continue
		}
		key := strings.ToLower(tok)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		terms = append(terms, tok)
	}
	return terms
}

// Rank orders records by score, descending. Records the store did not score
// get an overlap score against question first. Ties keep store order.
func Rank(question string, records []core.Record) []core.Record {
	if len(records) == 0 {
		return records
	}

	ranked := make([]core.Record, len(records))
	var qset map[string]struct{}
	for i, rec := range records {
		if !rec.HasScore() {
			if qset == nil {
				qset = tokenSet(question)
			}
			rec = rec.WithScore(OverlapScore(qset, rec.Content))
		}
		ranked[i] = rec
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].Score > *ranked[j].Score
	})
	return ranked
}

// OverlapScore is the share of question tokens that also occur in content.
func OverlapScore(question map[string]struct{}, content string) float64 {
	if len(question) == 0 {
		return 0
	}

	var hits int
	for tok := range tokenSet(content) {
		if _, ok := question[tok]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(question))
}

func tokenSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
