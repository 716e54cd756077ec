package users

import (
	"context"
	"errors"
	"strings"

	"interview-backend/internal/shared/telemetry"
)

type Service struct {
	Repo          Repo
	DefaultTrials int
}

func NewService(repo Repo, defaultTrials int) *Service {
	if defaultTrials < 0 {
		defaultTrials = 0
	}
	return &Service{Repo: repo, DefaultTrials: defaultTrials}
}

// FindOrCreate returns the account registered under the identity's email,
// creating it with default entitlements on first login.
func (s *Service) FindOrCreate(ctx context.Context, id Identity) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	email := strings.TrimSpace(id.Email)
	if email == "" {
		return User{}, errors.New("email is required")
	}

	user, err := s.Repo.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	user, err = s.Repo.Create(ctx, User{
		Email:    email,
		Name:     strings.TrimSpace(id.Name),
		Provider: id.Provider,
		IsPro:    false,
		Trials:   s.DefaultTrials,
	})
	if errors.Is(err, ErrEmailTaken) {
		// Concurrent first login; the other request created it.
		return s.Repo.GetByEmail(ctx, email)
	}
	if err != nil {
		return User{}, err
	}
	telemetry.Info("users.created", map[string]any{"user_id": user.ID, "provider": user.Provider})
	return user, nil
}

func (s *Service) GetByID(ctx context.Context, userID int64) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if userID <= 0 {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, userID)
}

// SetPro flips the subscription flag. Trials are left as they are.
func (s *Service) SetPro(ctx context.Context, userID int64, pro bool) (User, error) {
	if userID <= 0 {
		return User{}, ErrNotFound
	}
	return s.Repo.SetPro(ctx, userID, pro)
}
