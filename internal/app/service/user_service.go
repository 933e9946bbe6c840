package service

import (
	"context"
	"fmt"

	"agrimarket/internal/common"
	"agrimarket/internal/domain/model"
	"agrimarket/internal/domain/repository"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetCurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.HashedPassword = ""
	return user, nil
}

type SelectRoleRequest struct {
	Role string `json:"role"`
}

// SelectRole promotes a freshly signed-up account to farmer or customer.
// The choice is one-shot: once a marketplace role is set it cannot be
// changed, so a second call conflicts.
func (s *UserService) SelectRole(ctx context.Context, userID string, req SelectRoleRequest) (*model.User, error) {
	if !model.IsSelectableRole(req.Role) {
		return nil, common.Errorf("role must be %q or %q: %w", model.RoleFarmer, model.RoleCustomer, common.ErrValidation)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if model.IsSelectableRole(user.Role) {
		return nil, common.Errorf("role already selected: %w", common.ErrConflict)
	}

	if err := s.userRepo.UpdateRole(ctx, userID, req.Role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	user.Role = req.Role
	user.HashedPassword = ""
	return user, nil
}
