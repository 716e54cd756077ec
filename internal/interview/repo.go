package interview

import (
	"context"
	"errors"
)

var ErrSessionNotFound = errors.New("interview session not found")

type SessionRepo interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]Session, error)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
