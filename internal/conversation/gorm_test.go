package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"interview-backend/internal/llm"
)

func newMockGormStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	db, err := OpenGorm(sqlDB)
	if err != nil {
		t.Fatalf("OpenGorm: %v", err)
	}
	return NewGormStore(db), mock
}

func TestGormStoreAppendContinuesSequence(t *testing.T) {
	store, mock := newMockGormStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(seq\), 0\) FROM "conversation_messages"`).
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))
	mock.ExpectQuery(`INSERT INTO "conversation_messages"`).
		WithArgs(
			"s-1", 4, "user", "my answer", sqlmock.AnyArg(),
			"s-1", 5, "assistant", "next question", sqlmock.AnyArg(),
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10).AddRow(11))
	mock.ExpectCommit()

	err := store.Append(context.Background(), "s-1",
		llm.Message{Role: llm.RoleUser, Content: "my answer"},
		llm.Message{Role: llm.RoleAssistant, Content: "next question"},
	)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestGormStoreTranscriptOrdersBySeq(t *testing.T) {
	store, mock := newMockGormStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT \* FROM "conversation_messages" WHERE session_id = \$1 ORDER BY seq ASC`).
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "seq", "role", "content", "created_at"}).
			AddRow(1, "s-1", 1, "system", "sys", now).
			AddRow(2, "s-1", 2, "user", "resume", now).
			AddRow(3, "s-1", 3, "assistant", "Q1", now))

	history, err := store.History(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 3 || history[0].Role != llm.RoleSystem || history[2].Content != "Q1" {
		t.Fatalf("unexpected history %+v", history)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestGormStoreAppendNothing(t *testing.T) {
	store, mock := newMockGormStore(t)
	if err := store.Append(context.Background(), "s-1"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected queries: %v", err)
	}
}
