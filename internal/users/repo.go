package users

import (
	"context"
	"errors"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
	// ErrNoTrials is returned by ConsumeTrial when the counter is already zero.
	ErrNoTrials = errors.New("no trials remaining")
)

type Repo interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	// SetPro updates the subscription flag only; trials are never written.
	SetPro(ctx context.Context, id int64, pro bool) (User, error)
	// ConsumeTrial decrements trials by one only if it is positive, atomically.
	ConsumeTrial(ctx context.Context, id int64) (User, error)
	RefundTrial(ctx context.Context, id int64) (User, error)
}
