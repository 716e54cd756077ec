package object

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a storage key has no object behind it.
var ErrNotFound = errors.New("object not found")

// Object describes a stored document.
type Object struct {
	Key         string
	Size        int64
	ContentType string
}

// Store archives uploaded source documents per user.
type Store interface {
	Save(ctx context.Context, userID int64, fileName string, r io.Reader) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
