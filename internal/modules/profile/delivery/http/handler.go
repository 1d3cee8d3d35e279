package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/punjabready/portal-api/internal/middleware"
	profileDto "github.com/punjabready/portal-api/internal/modules/profile/dto"
	profile "github.com/punjabready/portal-api/internal/modules/profile/service"
	"github.com/punjabready/portal-api/pkg/response"
	"github.com/punjabready/portal-api/pkg/validator"
)

type ProfileHandler struct {
	profileService profile.ProfileService
}

func NewProfileHandler(profileService profile.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

func (h *ProfileHandler) GetCurrentProfile(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	res, err := h.profileService.GetCurrentProfile(c.Request.Context(), principal.ID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "User data retrieved successfully", res)
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var input profileDto.UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, validator.Translate(err))
		return
	}
	principal, _ := middleware.PrincipalFrom(c)

	res, err := h.profileService.UpdateProfile(c.Request.Context(), principal.ID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "Profile updated successfully", res)
}
