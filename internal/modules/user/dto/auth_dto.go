package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/entity"
)

type RegisterInput struct {
	Name       string `json:"name" binding:"required,min=2,max=50"`
	Email      string `json:"email" binding:"required,email,max=100"`
	Password   string `json:"password" binding:"required,min=6,max=72"`
	Department string `json:"department" binding:"max=100"`
	Phone      string `json:"phone" binding:"max=30"`
	// Role is accepted for compatibility with older clients and ignored;
	// self-registered accounts are always plain users.
	Role string `json:"role"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned by register, login and profile updates.
type AuthResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Department string    `json:"department,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Token      string    `json:"token"`
}

// UserResponse is the public view of a user record.
type UserResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	Department string     `json:"department,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	IsActive   bool       `json:"isActive"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func NewUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
		Phone:      u.Phone,
		IsActive:   u.IsActive,
		LastLogin:  u.LastLoginAt,
		CreatedAt:  u.CreatedAt,
	}
}
