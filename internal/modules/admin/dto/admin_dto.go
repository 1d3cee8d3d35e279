package dto

import (
	userDto "github.com/punjabready/portal-api/internal/modules/user/dto"
	commonDto "github.com/punjabready/portal-api/pkg/dto"
)

// UpdateUserInput carries the fields an admin may change. Absent fields are
// left untouched.
type UpdateUserInput struct {
	Name       *string `json:"name" binding:"omitempty,min=2,max=50"`
	Email      *string `json:"email" binding:"omitempty,email,max=100"`
	Role       *string `json:"role" binding:"omitempty,oneof=user admin moderator"`
	Department *string `json:"department" binding:"omitempty,max=100"`
	Phone      *string `json:"phone" binding:"omitempty,max=30"`
	IsActive   *bool   `json:"isActive"`
}

type UserListResponse struct {
	Users      []userDto.UserResponse `json:"users"`
	Pagination commonDto.Pagination   `json:"pagination"`
}

type UserEnvelope struct {
	User userDto.UserResponse `json:"user"`
}
