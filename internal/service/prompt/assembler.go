package prompt

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sandevgo/archivist/internal/core"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	emptyContent    = "[No text content]"
	truncatedMarker = "\n[Context truncated due to length...]"
	// truncationSlack is the headroom kept for the marker when trimming.
	truncationSlack = 100
)

const promptTemplate = `Based on the following message history from the Discord server, please answer this question:

QUESTION: %s

RELEVANT MESSAGE HISTORY:
%s

Answer the question based only on the information provided in the message history. If the information needed isn't in the message history, acknowledge that and provide what's known. Be conversational and helpful.`

const historyHeader = "\n\nRecent conversation history:\n"

// Assembler renders retrieved records into a bounded context block and
// wraps it in the answering prompt.
type Assembler struct {
	maxLength int
}

func NewAssembler(maxLength int) *Assembler {
	return &Assembler{maxLength: maxLength}
}

// Process renders records oldest first, one line each. The result never
// exceeds the configured length, counted in characters.
func (a *Assembler) Process(records []core.Record) string {
	if len(records) == 0 {
		return core.NoRelevantContext
	}

	sorted := make([]core.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	lines := make([]string, 0, len(sorted))
	for _, rec := range sorted {
		lines = append(lines, FormatRecord(rec))
	}

	return a.truncate(strings.Join(lines, "\n"))
}

// CreatePrompt embeds question and context verbatim in the answering template.
func (a *Assembler) CreatePrompt(question, context string) string {
	return fmt.Sprintf(promptTemplate, question, context)
}

// WithHistory appends the recent conversation block when history is non-empty.
func (a *Assembler) WithHistory(prompt, history string) string {
	if history == "" {
		return prompt
	}
	return prompt + historyHeader + history
}

func (a *Assembler) truncate(text string) string {
	if a.maxLength <= 0 || utf8.RuneCountInString(text) <= a.maxLength {
		return text
	}

	keep := a.maxLength - truncationSlack
	if keep < 0 {
		keep = 0
	}
	out := string([]rune(text)[:keep]) + truncatedMarker

	// budgets too small for the marker are cut hard
	if r := []rune(out); len(r) > a.maxLength {
		out = string(r[:a.maxLength])
	}
	return out
}

func FormatRecord(rec core.Record) string {
	content := rec.Content
	if content == "" {
		content = emptyContent
	}
	return fmt.Sprintf("[%s] %s in #%s: %s",
		rec.CreatedAt.Format(timestampLayout), rec.AuthorName, rec.ChannelName, content)
}
