package resumes

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("resume not found")

// Store keeps at most one resume per user.
type Store interface {
	// Upsert inserts the user's resume or replaces the content of the existing
	// record. The record id never changes once assigned.
	Upsert(ctx context.Context, userID int64, resume StructuredResume) (Record, error)
	GetByUserID(ctx context.Context, userID int64) (Record, error)
	GetByID(ctx context.Context, id int64) (Record, error)
	// AttachSource records where the uploaded original was archived.
	AttachSource(ctx context.Context, userID int64, key string) error
}
