package dto

import "github.com/google/uuid"

// UserSummary is the populated view of an owner or assignee reference.
type UserSummary struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department string    `json:"department,omitempty"`
}

// Pagination is the {current, pages, total} block used by most listings.
type Pagination struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
}

