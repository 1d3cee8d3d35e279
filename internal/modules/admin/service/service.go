package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/access"
	"github.com/punjabready/portal-api/internal/entity"
	"github.com/punjabready/portal-api/internal/modules/admin/dto"
	userDto "github.com/punjabready/portal-api/internal/modules/user/dto"
	"github.com/punjabready/portal-api/internal/modules/user/repository"
	"github.com/punjabready/portal-api/internal/query"
	"github.com/punjabready/portal-api/pkg/apperror"
	"github.com/punjabready/portal-api/pkg/logging"
	"github.com/punjabready/portal-api/pkg/sanitize"
	"gorm.io/gorm"
)

const msgUserNotFound = "User not found"

type AdminService interface {
	GetAllUsers(ctx context.Context, principal access.Principal, filter query.UserFilter, page query.Page) (*dto.UserListResponse, error)
	GetUser(ctx context.Context, principal access.Principal, id uuid.UUID) (*dto.UserEnvelope, error)
	UpdateUser(ctx context.Context, principal access.Principal, id uuid.UUID, input dto.UpdateUserInput) (*dto.UserEnvelope, error)
	DeleteUser(ctx context.Context, principal access.Principal, id uuid.UUID) error
}

type adminService struct {
	userRepo repository.UserRepository
}

func NewAdminService(userRepo repository.UserRepository) AdminService {
	return &adminService{userRepo: userRepo}
}

func (s *adminService) GetAllUsers(ctx context.Context, principal access.Principal, filter query.UserFilter, page query.Page) (*dto.UserListResponse, error) {
	if !access.IsAdmin(principal.Role) {
		return nil, apperror.Forbidden("Not authorized to list users")
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	users, total, err := s.userRepo.FindAll(ctx, filter, page)
	if err != nil {
		return nil, err
	}

	res := &dto.UserListResponse{
		Users:      make([]userDto.UserResponse, 0, len(users)),
		Pagination: query.NewResult(page, total).Pagination(),
	}
	for _, u := range users {
		res.Users = append(res.Users, userDto.NewUserResponse(u))
	}
	return res, nil
}

func (s *adminService) GetUser(ctx context.Context, principal access.Principal, id uuid.UUID) (*dto.UserEnvelope, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanManageUser(principal, id, access.ActionRead).Allowed() {
		return nil, apperror.Forbidden("Not authorized to access this user")
	}
	return &dto.UserEnvelope{User: userDto.NewUserResponse(user)}, nil
}

func (s *adminService) UpdateUser(ctx context.Context, principal access.Principal, id uuid.UUID, input dto.UpdateUserInput) (*dto.UserEnvelope, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanManageUser(principal, id, access.ActionUpdate).Allowed() {
		return nil, apperror.Forbidden("Not authorized to update this user")
	}

	if input.Email != nil {
		email := entity.NormalizeEmail(*input.Email)
		if email != user.Email {
			other, err := s.userRepo.FindByEmail(ctx, email)
			if err == nil && other.ID != user.ID {
				return nil, apperror.Conflict("Duplicate field value entered: email")
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			user.Email = email
		}
	}
	if input.Name != nil {
		user.Name = sanitize.Text(*input.Name)
	}
	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.Department != nil {
		user.Department = sanitize.Text(*input.Department)
	}
	if input.Phone != nil {
		user.Phone = sanitize.Text(*input.Phone)
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperror.FromRepo(err, msgUserNotFound)
	}

	logging.Info().
		Str("admin_id", principal.ID.String()).
		Str("user_id", user.ID.String()).
		Msg("user updated by admin")

	return &dto.UserEnvelope{User: userDto.NewUserResponse(user)}, nil
}

func (s *adminService) DeleteUser(ctx context.Context, principal access.Principal, id uuid.UUID) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	switch access.CanManageUser(principal, id, access.ActionDelete) {
	case access.Allow:
	case access.DecisionSelf:
		return apperror.BadRequest("You cannot delete your own account")
	default:
		return apperror.Forbidden("Not authorized to delete this user")
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return apperror.FromRepo(err, msgUserNotFound)
	}

	logging.Info().
		Str("admin_id", principal.ID.String()).
		Str("user_id", id.String()).
		Msg("user deleted by admin")
	return nil
}

func (s *adminService) find(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromRepo(err, msgUserNotFound)
	}
	return user, nil
}
