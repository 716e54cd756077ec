// Package conversation is the append-only message log behind interview sessions.
package conversation

import (
	"context"
	"time"

	"interview-backend/internal/llm"
)

// Message is one stored turn. Seq orders turns within a session starting at 1.
type Message struct {
	ID        int64     `gorm:"primaryKey" json:"-"`
	SessionID string    `gorm:"type:uuid;not null;uniqueIndex:conversation_messages_session_seq" json:"-"`
	Seq       int       `gorm:"not null;uniqueIndex:conversation_messages_session_seq" json:"seq"`
	Role      string    `gorm:"not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Message) TableName() string {
	return "conversation_messages"
}

// Store keeps conversation turns and exposes them to the completion service.
type Store interface {
	llm.Memory
	Transcript(ctx context.Context, sessionID string) ([]Message, error)
}

func toLLM(msgs []Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
	}
	return out
}
