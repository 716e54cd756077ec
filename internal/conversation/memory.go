package conversation

import (
	"context"
	"sync"
	"time"

	"interview-backend/internal/llm"
)

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]Message)}
}

func (s *MemoryStore) Append(ctx context.Context, sessionID string, msgs ...llm.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.sessions[sessionID]
	now := time.Now().UTC()
	for _, m := range msgs {
		existing = append(existing, Message{
			SessionID: sessionID,
			Seq:       len(existing) + 1,
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: now,
		})
	}
	s.sessions[sessionID] = existing
	return nil
}

func (s *MemoryStore) History(ctx context.Context, sessionID string) ([]llm.Message, error) {
	msgs, err := s.Transcript(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return toLLM(msgs), nil
}

func (s *MemoryStore) Transcript(ctx context.Context, sessionID string) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Message(nil), s.sessions[sessionID]...), nil
}
