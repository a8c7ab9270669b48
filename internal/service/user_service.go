package service

import (
	"context"

	"reviewhub/internal/model"
	"reviewhub/internal/repository"
)

// UserService exposes the current user's profile to the dashboard.
type UserService interface {
	Get(ctx context.Context, userID string) (*model.User, error)
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService creates a UserService.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) Get(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}
