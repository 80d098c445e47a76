package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/sandevgo/archivist/internal/core"
)

const DefaultHistoryLimit = 5

type session struct {
	mu    sync.Mutex
	turns []core.Turn
}

// Conversations keeps a bounded, in-process history per user. Each user's
// session has its own lock, so different users never contend.
type Conversations struct {
	mu       sync.RWMutex
	sessions map[string]*session
	limit    int
	now      func() time.Time
}

func NewConversations(limit int) *Conversations {
	if limit < 1 {
		limit = 1
	}
	return &Conversations{
		sessions: make(map[string]*session),
		limit:    limit,
		now:      time.Now,
	}
}

// AddMessage appends a turn and evicts the oldest ones beyond the limit.
func (c *Conversations) AddMessage(userID, text string, isAssistant bool) {
	speaker := core.SpeakerUser
	if isAssistant {
		speaker = core.SpeakerAssistant
	}

	s := c.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, core.Turn{Speaker: speaker, Text: text, CreatedAt: c.now()})
	if over := len(s.turns) - c.limit; over > 0 {
		s.turns = append(s.turns[:0:0], s.turns[over:]...)
	}
}

// History renders the session oldest first as "User: ..." / "Bot: ..." lines.
func (c *Conversations) History(userID string) string {
	turns := c.Turns(userID)
	if len(turns) == 0 {
		return ""
	}

	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		prefix := "User: "
		if t.Speaker == core.SpeakerAssistant {
			prefix = "Bot: "
		}
		lines = append(lines, prefix+t.Text)
	}
	return strings.Join(lines, "\n")
}

// Turns returns a copy of the user's session.
func (c *Conversations) Turns(userID string) []core.Turn {
	c.mu.RLock()
	s, ok := c.sessions[userID]
	c.mu.RUnlock()
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (c *Conversations) Clear(userID string) {
	c.mu.Lock()
	delete(c.sessions, userID)
	c.mu.Unlock()
}

func (c *Conversations) Limit() int {
	return c.limit
}

func (c *Conversations) session(userID string) *session {
	c.mu.RLock()
	s, ok := c.sessions[userID]
	c.mu.RUnlock()
	if ok {
		return s
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok = c.sessions[userID]; !ok {
		s = &session{}
		c.sessions[userID] = s
	}
	return s
}
