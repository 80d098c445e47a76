package agent

import (
	"context"

	"github.com/sandevgo/archivist/pkg/keylock"
)

type Pipeline interface {
	Answer(ctx context.Context, userID, scope, question string) string
	ClearHistory(userID string)
	History(userID string) string
}

// Serialized runs at most one Answer per user at a time. Different users
// never wait on each other.
type Serialized struct {
	Pipeline
	locks *keylock.KeyLock
}

func Serialize(p Pipeline) *Serialized {
	return &Serialized{Pipeline: p, locks: keylock.New()}
}

func (s *Serialized) Answer(ctx context.Context, userID, scope, question string) string {
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.Pipeline.Answer(ctx, userID, scope, question)
}
