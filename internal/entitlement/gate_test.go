package entitlement

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"interview-backend/internal/users"
)

type failingStore struct{}

func (failingStore) ConsumeTrial(context.Context, int64) (users.User, error) {
	return users.User{}, errors.New("connection reset")
}

func (failingStore) RefundTrial(context.Context, int64) (users.User, error) {
	return users.User{}, errors.New("connection reset")
}

func seed(t *testing.T, u users.User) (*users.MemoryRepo, users.User) {
	t.Helper()
	repo := users.NewMemoryRepo()
	created, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return repo, created
}

func TestAuthorizeConsumesTrials(t *testing.T) {
	repo, user := seed(t, users.User{Email: "a@example.com", Trials: 2})
	gate := NewGate(repo)
	ctx := context.Background()

	d, err := gate.Authorize(ctx, user)
	if err != nil || d.Reason != ReasonTrial || d.TrialsRemaining != 1 {
		t.Fatalf("first grant: %+v %v", d, err)
	}
	user, _ = repo.GetByID(ctx, user.ID)
	d, err = gate.Authorize(ctx, user)
	if err != nil || d.TrialsRemaining != 0 {
		t.Fatalf("second grant: %+v %v", d, err)
	}
	user, _ = repo.GetByID(ctx, user.ID)
	if _, err := gate.Authorize(ctx, user); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if got, _ := repo.GetByID(ctx, user.ID); got.Trials != 0 {
		t.Fatalf("trials went below zero: %d", got.Trials)
	}
}

func TestAuthorizeProBypassesTrials(t *testing.T) {
	repo, user := seed(t, users.User{Email: "p@example.com", IsPro: true, Trials: 0})
	gate := NewGate(repo)

	for i := 0; i < 5; i++ {
		d, err := gate.Authorize(context.Background(), user)
		if err != nil || d.Reason != ReasonPro {
			t.Fatalf("pro grant %d: %+v %v", i, d, err)
		}
	}
	if got, _ := repo.GetByID(context.Background(), user.ID); got.Trials != 0 {
		t.Fatalf("pro user trials changed: %d", got.Trials)
	}
}

func TestAuthorizeStaleSnapshotLosesRace(t *testing.T) {
	repo, user := seed(t, users.User{Email: "s@example.com", Trials: 1})
	gate := NewGate(repo)
	ctx := context.Background()

	if _, err := gate.Authorize(ctx, user); err != nil {
		t.Fatalf("first grant: %v", err)
	}
	// user still says Trials: 1
	if _, err := gate.Authorize(ctx, user); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted on stale snapshot, got %v", err)
	}
}

func TestAuthorizeConcurrentSingleTrial(t *testing.T) {
	repo, user := seed(t, users.User{Email: "c@example.com", Trials: 1})
	gate := NewGate(repo)

	var granted, denied atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := gate.Authorize(context.Background(), user)
			switch {
			case err == nil:
				granted.Add(1)
			case errors.Is(err, ErrExhausted):
				denied.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if granted.Load() != 1 || denied.Load() != 15 {
		t.Fatalf("expected 1 grant and 15 denials, got %d/%d", granted.Load(), denied.Load())
	}
	if got, _ := repo.GetByID(context.Background(), user.ID); got.Trials != 0 {
		t.Fatalf("expected 0 trials, got %d", got.Trials)
	}
}

func TestAuthorizeStoreFailure(t *testing.T) {
	gate := NewGate(failingStore{})
	_, err := gate.Authorize(context.Background(), users.User{ID: 1, Trials: 1})
	if !errors.Is(err, ErrPersistenceFailed) {
		t.Fatalf("expected ErrPersistenceFailed, got %v", err)
	}
}

func TestRefundRestoresTrial(t *testing.T) {
	repo, user := seed(t, users.User{Email: "r@example.com", Trials: 1})
	gate := NewGate(repo)
	ctx := context.Background()

	d, err := gate.Authorize(ctx, user)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if err := gate.Refund(ctx, user, d); err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if got, _ := repo.GetByID(ctx, user.ID); got.Trials != 1 {
		t.Fatalf("expected trial back, got %d", got.Trials)
	}
	if err := gate.Refund(ctx, users.User{ID: user.ID, IsPro: true}, Decision{Reason: ReasonPro}); err != nil {
		t.Fatalf("pro refund should be a no-op: %v", err)
	}
	if got, _ := repo.GetByID(ctx, user.ID); got.Trials != 1 {
		t.Fatalf("pro refund changed trials: %d", got.Trials)
	}
}
