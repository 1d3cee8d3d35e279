package service

import (
	"context"
	"errors"
	"time"

	"github.com/punjabready/portal-api/internal/entity"
	"github.com/punjabready/portal-api/internal/modules/user/dto"
	"github.com/punjabready/portal-api/internal/modules/user/repository"
	"github.com/punjabready/portal-api/pkg/apperror"
	"github.com/punjabready/portal-api/pkg/logging"
	"github.com/punjabready/portal-api/pkg/sanitize"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgDeactivated        = "Account is deactivated. Please contact administrator."
	msgUserExists         = "User already exists with this email"
)

type AuthService interface {
	Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
}

type authService struct {
	repo   repository.UserRepository
	tokens TokenIssuer
	now    func() time.Time
}

func NewAuthService(repo repository.UserRepository, tokens TokenIssuer) AuthService {
	return &authService{
		repo:   repo,
		tokens: tokens,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error) {
	email := entity.NormalizeEmail(input.Email)

	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return nil, apperror.BadRequest(msgUserExists)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &entity.User{
		Name:         sanitize.Text(input.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         entity.RoleUser,
		Department:   sanitize.Text(input.Department),
		Phone:        sanitize.Text(input.Phone),
		IsActive:     true,
		LastLoginAt:  &now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		// The unique index catches a concurrent registration of the same email.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.BadRequest(msgUserExists)
		}
		return nil, err
	}

	logging.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return s.buildAuthResponse(user)
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized(msgInvalidCredentials)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperror.Unauthorized(msgInvalidCredentials)
	}

	if !user.IsActive {
		return nil, apperror.Unauthorized(msgDeactivated)
	}

	now := s.now()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	return s.buildAuthResponse(user)
}

func (s *authService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, error) {
	return BuildAuthResponse(s.tokens, user)
}

// BuildAuthResponse signs a fresh token for user.
func BuildAuthResponse(tokens TokenIssuer, user *entity.User) (*dto.AuthResponse, error) {
	token, err := tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		Department: user.Department,
		Phone:      user.Phone,
		Token:      token,
	}, nil
}
