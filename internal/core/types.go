package core

import (
	"time"
)

const (
	AppName       = "Archivist"
	AppUserAgent  = "Archivist-Bot/0.1"
	RepositoryURL = "https://github.com/sandevgo/archivist"
	AppVersion    = "0.1.0"
)

// Record is one historical chat entry eligible for retrieval.
// Score is set only when the record came out of a ranking step.
type Record struct {
	ID          string
	Scope       string
	ChannelID   string
	ChannelName string
	AuthorID    string
	AuthorName  string
	Content     string
	CreatedAt   time.Time
	Pinned      bool
	ReplyTo     string
	Attachments int
	Score       *float64
}

func (r Record) HasScore() bool {
	return r.Score != nil
}

// WithScore returns a copy of r carrying score.
func (r Record) WithScore(score float64) Record {
	r.Score = &score
	return r
}

// Query is a retrieval request built per question.
type Query struct {
	Text       string
	Scope      string
	MaxDays    int
	MaxResults int
}

// Since returns the recency lower bound, or the zero time when unbounded.
func (q Query) Since(now time.Time) time.Time {
	if q.MaxDays <= 0 {
		return time.Time{}
	}
	return now.AddDate(0, 0, -q.MaxDays)
}

type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one message in a per-user conversation session.
type Turn struct {
	Speaker   Speaker
	Text      string
	CreatedAt time.Time
}

// Fixed answers returned on degraded paths.
const (
	AnswerNoHistory      = "I couldn't find any relevant information in the server's message history to answer your question."
	AnswerNotConfigured  = "I'm unable to generate a response because the AI service is not configured properly."
	AnswerGenerationFail = "I encountered an error while generating a response. Please try again later."
	AnswerEmptyQuestion  = "Please include a question after the command."
	AnswerRateLimited    = "You're asking questions too quickly. Please wait a moment and try again."
	NoRelevantContext    = "No relevant message history found."
)

// Roles used on the chat-completions wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
