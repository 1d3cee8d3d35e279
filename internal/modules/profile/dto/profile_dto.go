package dto

// UpdateProfileInput holds the self-service profile fields. Empty values
// keep the current ones.
type UpdateProfileInput struct {
	Name       *string `json:"name" binding:"omitempty,min=2,max=50"`
	Email      *string `json:"email" binding:"omitempty,email,max=100"`
	Department *string `json:"department" binding:"omitempty,max=100"`
	Phone      *string `json:"phone" binding:"omitempty,max=30"`
	Password   *string `json:"password" binding:"omitempty,min=6,max=72"`
}
