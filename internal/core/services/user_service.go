package services

import (
	"context"

	"github.com/ekalavyajud/backend/internal/adapters/persistence/models"
	"github.com/ekalavyajud/backend/internal/adapters/persistence/repositories"
)

// UserService exposes account reads outside the lifecycle flow
type UserService struct {
	userRepo repositories.UserRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// List returns all accounts
func (s *UserService) List(ctx context.Context) ([]*models.Account, error) {
	accounts, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, repoFailure(err)
	}
	return accounts, nil
}

// GetByEmail returns one account
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	account, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, lookupFailure(err)
	}
	return account, nil
}
