// Package entitlement decides whether a user may start an interview session.
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"interview-backend/internal/shared/keylock"
	"interview-backend/internal/shared/metrics"
	"interview-backend/internal/shared/telemetry"
	"interview-backend/internal/users"
)

var (
	ErrExhausted         = errors.New("entitlement exhausted")
	ErrPersistenceFailed = errors.New("entitlement persistence failed")
)

// Reason explains why a session was allowed.
type Reason string

const (
	ReasonPro   Reason = "pro"
	ReasonTrial Reason = "trial"
)

// Decision is the outcome of a granted authorization.
type Decision struct {
	Reason          Reason
	TrialsRemaining int
}

// TrialStore is the slice of the user directory the gate mutates.
type TrialStore interface {
	ConsumeTrial(ctx context.Context, id int64) (users.User, error)
	RefundTrial(ctx context.Context, id int64) (users.User, error)
}

type Gate struct {
	Store TrialStore
	locks keylock.Map
}

func NewGate(store TrialStore) *Gate {
	return &Gate{Store: store}
}

// Authorize grants pro users unconditionally and spends one trial otherwise.
// The decrement is a conditional update in the store, so two concurrent
// calls for a user with one trial grant exactly once.
func (g *Gate) Authorize(ctx context.Context, user users.User) (Decision, error) {
	if user.IsPro {
		return Decision{Reason: ReasonPro, TrialsRemaining: user.Trials}, nil
	}
	if user.Trials <= 0 {
		metrics.IncEntitlementDenied()
		return Decision{}, ErrExhausted
	}

	unlock, err := g.lock(ctx, user.ID)
	if err != nil {
		return Decision{}, err
	}
	defer unlock()

	updated, err := g.Store.ConsumeTrial(ctx, user.ID)
	switch {
	case errors.Is(err, users.ErrNoTrials):
		metrics.IncEntitlementDenied()
		return Decision{}, ErrExhausted
	case errors.Is(err, users.ErrNotFound):
		return Decision{}, err
	case err != nil:
		telemetry.Error("entitlement.consume_failed", map[string]any{"user_id": user.ID, "error": err})
		return Decision{}, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}

	telemetry.Info("entitlement.trial_consumed", map[string]any{"user_id": user.ID, "trials": updated.Trials})
	return Decision{Reason: ReasonTrial, TrialsRemaining: updated.Trials}, nil
}

// Refund gives back a trial spent by a grant whose session never produced a question.
func (g *Gate) Refund(ctx context.Context, user users.User, d Decision) error {
	if user.IsPro || d.Reason != ReasonTrial {
		return nil
	}
	unlock, err := g.lock(ctx, user.ID)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := g.Store.RefundTrial(ctx, user.ID); err != nil {
		telemetry.Error("entitlement.refund_failed", map[string]any{"user_id": user.ID, "error": err})
		return fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	telemetry.Info("entitlement.trial_refunded", map[string]any{"user_id": user.ID})
	return nil
}

func (g *Gate) lock(ctx context.Context, userID int64) (func(), error) {
	return g.locks.Lock(ctx, "user:"+strconv.FormatInt(userID, 10))
}
