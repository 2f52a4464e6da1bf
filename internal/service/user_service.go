package service

import (
	"context"

	"github.com/appprovts/SolarFlowPro/internal/repository"
	"github.com/appprovts/SolarFlowPro/internal/types"
)

// ============================================
// User Service
// ============================================

type UserService interface {
	GetByID(ctx context.Context, id string) (*repository.User, error)
	List(ctx context.Context) ([]*repository.User, error)
	ListIntegrators(ctx context.Context) ([]*repository.User, error)
	UpdateProfile(ctx context.Context, id string, name, avatar, phone *string) (*repository.User, error)
	ChangeRole(ctx context.Context, actorRole, targetID, newRole string) (*repository.User, error)
	Touch(ctx context.Context, id string)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetByID(ctx context.Context, id string) (*repository.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) List(ctx context.Context) ([]*repository.User, error) {
	return s.userRepo.FindAll(ctx)
}

func (s *userService) ListIntegrators(ctx context.Context) ([]*repository.User, error) {
	return s.userRepo.FindByRole(ctx, types.RoleIntegrador)
}

func (s *userService) UpdateProfile(ctx context.Context, id string, name, avatar, phone *string) (*repository.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if name != nil && *name != "" {
		user.Name = *name
	}
	if avatar != nil {
		user.Avatar = avatar
	}
	if phone != nil {
		user.Phone = phone
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangeRole promotes or demotes a user. Only admins may do this.
func (s *userService) ChangeRole(ctx context.Context, actorRole, targetID, newRole string) (*repository.User, error) {
	if actorRole != types.RoleAdmin {
		return nil, ErrForbidden
	}
	if !types.IsValidRole(newRole) {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err := s.userRepo.UpdateRole(ctx, targetID, newRole); err != nil {
		return nil, err
	}
	user.Role = newRole
	return user, nil
}

// Touch records activity for presence tracking. Best-effort.
func (s *userService) Touch(ctx context.Context, id string) {
	s.userRepo.UpdateLastActive(ctx, id)
}
