package conversation

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"interview-backend/internal/llm"
	"interview-backend/internal/shared/telemetry"
)

// GormStore persists the log in conversation_messages. The table is created by
// the goose migrations, not by AutoMigrate.
type GormStore struct {
	db *gorm.DB
}

// OpenGorm wraps an existing pool so both access paths share connections.
func OpenGorm(sqlDB *sql.DB) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	return db, nil
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Append writes msgs in one transaction with consecutive seq numbers.
func (s *GormStore) Append(ctx context.Context, sessionID string, msgs ...llm.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int
		if err := tx.Model(&Message{}).
			Where("session_id = ?", sessionID).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&last).Error; err != nil {
			return err
		}
		rows := make([]Message, 0, len(msgs))
		for i, m := range msgs {
			rows = append(rows, Message{
				SessionID: sessionID,
				Seq:       last + i + 1,
				Role:      string(m.Role),
				Content:   m.Content,
			})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		telemetry.Error("conversation.append_failed", map[string]any{"session_id": sessionID, "error": err})
		return fmt.Errorf("append messages: %w", err)
	}
	return nil
}

func (s *GormStore) History(ctx context.Context, sessionID string) ([]llm.Message, error) {
	msgs, err := s.Transcript(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return toLLM(msgs), nil
}

func (s *GormStore) Transcript(ctx context.Context, sessionID string) ([]Message, error) {
	var msgs []Message
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("seq ASC").
		Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	return msgs, nil
}
