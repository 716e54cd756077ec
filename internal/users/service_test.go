package users

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestFindOrCreateAppliesDefaults(t *testing.T) {
	svc := NewService(NewMemoryRepo(), DefaultTrials)
	ctx := context.Background()

	user, err := svc.FindOrCreate(ctx, Identity{Email: "jane@example.com", Name: " Jane Doe ", Provider: "google"})
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	if user.ID == 0 || user.IsPro || user.Trials != 2 {
		t.Fatalf("unexpected defaults: %+v", user)
	}
	if user.Name != "Jane Doe" || user.Provider != "google" {
		t.Fatalf("unexpected identity fields: %+v", user)
	}

	again, err := svc.FindOrCreate(ctx, Identity{Email: "JANE@example.com", Provider: "google"})
	if err != nil {
		t.Fatalf("FindOrCreate again: %v", err)
	}
	if again.ID != user.ID {
		t.Fatalf("expected same account, got %d and %d", user.ID, again.ID)
	}
}

func TestFindOrCreateConcurrentFirstLogin(t *testing.T) {
	svc := NewService(NewMemoryRepo(), DefaultTrials)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]int64, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := svc.FindOrCreate(ctx, Identity{Email: "race@example.com", Provider: "google"})
			if err != nil {
				t.Errorf("FindOrCreate: %v", err)
				return
			}
			ids[i] = u.ID
		}(i)
	}
	wg.Wait()
	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("expected a single account, got ids %v", ids)
		}
	}
}

func TestFindOrCreateRequiresEmail(t *testing.T) {
	svc := NewService(NewMemoryRepo(), DefaultTrials)
	if _, err := svc.FindOrCreate(context.Background(), Identity{Email: "  "}); err == nil {
		t.Fatalf("expected error for empty email")
	}
}

func TestMemoryRepoTrialsNeverNegative(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	user, _ := repo.Create(ctx, User{Email: "a@example.com", Trials: 1})

	after, err := repo.ConsumeTrial(ctx, user.ID)
	if err != nil || after.Trials != 0 {
		t.Fatalf("expected trials 0, got %+v (%v)", after, err)
	}
	if _, err := repo.ConsumeTrial(ctx, user.ID); !errors.Is(err, ErrNoTrials) {
		t.Fatalf("expected ErrNoTrials, got %v", err)
	}
	refunded, err := repo.RefundTrial(ctx, user.ID)
	if err != nil || refunded.Trials != 1 {
		t.Fatalf("expected trials 1 after refund, got %+v (%v)", refunded, err)
	}
	if _, err := repo.ConsumeTrial(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetProKeepsTrials(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, 2)
	ctx := context.Background()
	user, _ := svc.FindOrCreate(ctx, Identity{Email: "pro@example.com"})

	updated, err := svc.SetPro(ctx, user.ID, true)
	if err != nil {
		t.Fatalf("SetPro: %v", err)
	}
	if !updated.IsPro || updated.Trials != 2 || updated.Email != "pro@example.com" {
		t.Fatalf("unexpected user after SetPro: %+v", updated)
	}
	if _, err := svc.SetPro(ctx, 404, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetProDoesNotRestoreSpentTrial(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, 2)
	ctx := context.Background()
	user, _ := svc.FindOrCreate(ctx, Identity{Email: "race@example.com"})

	// A trial spent after the caller last read the user must stay spent.
	stale, _ := svc.GetByID(ctx, user.ID)
	if _, err := repo.ConsumeTrial(ctx, user.ID); err != nil {
		t.Fatalf("ConsumeTrial: %v", err)
	}
	updated, err := svc.SetPro(ctx, stale.ID, true)
	if err != nil {
		t.Fatalf("SetPro: %v", err)
	}
	if updated.Trials != 1 {
		t.Fatalf("expected 1 trial after consume, got %d", updated.Trials)
	}
}
