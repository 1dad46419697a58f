package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pupaakdev/userd/internal/model"
	"github.com/pupaakdev/userd/internal/repository"
)

// UserService serves the authenticated user-management endpoints.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// List returns all users redacted to their public fields. Password hashes
// and provider ids never appear in the result.
func (s *UserService) List(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/user: listing users: %w", err)
	}

	public := make([]model.PublicUser, 0, len(users))
	for i := range users {
		public = append(public, users[i].Public())
	}

	return public, nil
}

// Delete removes a user by internal ID. Returns NotFound if no such user
// exists.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("user deleted", slog.String("userID", id))
	return nil
}
