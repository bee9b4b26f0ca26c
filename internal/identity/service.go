// Package identity synchronizes the local user store with the identity
// provider. Users are never created by application CRUD; the provider's
// webhook events are the only write path, and the provider's user ID is used
// verbatim as the local primary key.
package identity

import (
	"context"
	"log/slog"

	"coursehub/internal/types"
)

// Service applies identity events to the user store.
type Service struct {
	repos  types.RepositoryRegistry
	logger *slog.Logger
}

// NewService creates an identity Service.
func NewService(repos types.RepositoryRegistry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repos: repos, logger: logger}
}

// Profile is the normalized user projection carried by created and updated
// events. Fields not present in the event come through as empty strings and
// overwrite the stored values; update events replace the profile wholesale.
type Profile struct {
	ID       string
	Email    string
	Name     string
	ImageURL string
}

// SyncUser applies a created or updated event. Both map to the same upsert,
// so a redelivered created event for an existing user converges instead of
// failing. A missing user ID or email is a payload defect: retrying the
// delivery cannot fix it, and the returned validation error lets the caller
// reject rather than ask for a redelivery.
func (s *Service) SyncUser(ctx context.Context, profile Profile) error {
	if profile.ID == "" {
		return types.NewAppError(
			types.ErrCodeValidationMissingField,
			"identity event has no user ID",
			nil,
		)
	}
	if profile.Email == "" {
		return types.NewAppError(
			types.ErrCodeValidationMissingField,
			"identity event has no email address",
			nil,
		)
	}

	user := &types.User{
		ID:       profile.ID,
		Email:    profile.Email,
		Name:     profile.Name,
		ImageURL: profile.ImageURL,
	}
	if err := s.repos.Users().Upsert(ctx, user); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "user synchronized",
		"user_id", profile.ID,
	)
	return nil
}

// DeleteUser applies a deleted event. Deleting an unknown user succeeds, so
// redeliveries are idempotent.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	if userID == "" {
		return types.NewAppError(
			types.ErrCodeValidationMissingField,
			"identity event has no user ID",
			nil,
		)
	}

	if err := s.repos.Users().Delete(ctx, userID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "user deleted",
		"user_id", userID,
	)
	return nil
}
