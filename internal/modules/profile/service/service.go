package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/entity"
	profileDto "github.com/punjabready/portal-api/internal/modules/profile/dto"
	userDto "github.com/punjabready/portal-api/internal/modules/user/dto"
	userRepo "github.com/punjabready/portal-api/internal/modules/user/repository"
	userService "github.com/punjabready/portal-api/internal/modules/user/service"
	"github.com/punjabready/portal-api/pkg/apperror"
	"github.com/punjabready/portal-api/pkg/sanitize"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type ProfileService interface {
	GetCurrentProfile(ctx context.Context, userID uuid.UUID) (*userDto.UserResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input profileDto.UpdateProfileInput) (*userDto.AuthResponse, error)
}

type profileService struct {
	repo   userRepo.UserRepository
	tokens userService.TokenIssuer
}

func NewProfileService(repo userRepo.UserRepository, tokens userService.TokenIssuer) ProfileService {
	return &profileService{
		repo:   repo,
		tokens: tokens,
	}
}

func (s *profileService) GetCurrentProfile(ctx context.Context, userID uuid.UUID) (*userDto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.FromRepo(err, "User not found")
	}
	res := userDto.NewUserResponse(user)
	return &res, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, input profileDto.UpdateProfileInput) (*userDto.AuthResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.FromRepo(err, "User not found")
	}

	if v := nonEmpty(input.Email); v != "" {
		email := entity.NormalizeEmail(v)
		if email != user.Email {
			other, err := s.repo.FindByEmail(ctx, email)
			if err == nil && other.ID != user.ID {
				return nil, apperror.Conflict("Duplicate field value entered: email")
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			user.Email = email
		}
	}
	if v := nonEmpty(input.Name); v != "" {
		user.Name = sanitize.Text(v)
	}
	if v := nonEmpty(input.Department); v != "" {
		user.Department = sanitize.Text(v)
	}
	if v := nonEmpty(input.Phone); v != "" {
		user.Phone = sanitize.Text(v)
	}
	if v := nonEmpty(input.Password); v != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(v), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, apperror.FromRepo(err, "User not found")
	}

	return userService.BuildAuthResponse(s.tokens, user)
}

func nonEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
