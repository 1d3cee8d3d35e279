package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/middleware"
	"github.com/punjabready/portal-api/internal/modules/admin/dto"
	adminService "github.com/punjabready/portal-api/internal/modules/admin/service"
	"github.com/punjabready/portal-api/internal/query"
	"github.com/punjabready/portal-api/pkg/apperror"
	"github.com/punjabready/portal-api/pkg/response"
	"github.com/punjabready/portal-api/pkg/validator"
)

type AdminHandler struct {
	adminService adminService.AdminService
}

func NewAdminHandler(adminService adminService.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

func (h *AdminHandler) GetAllUsers(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	var filter query.UserFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ResponseError(c, validator.Translate(err))
		return
	}
	page := query.PageFromStrings(c.Query("page"), c.Query("limit"), query.DefaultUserLimit)

	res, err := h.adminService.GetAllUsers(c.Request.Context(), principal, filter, page)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "Users retrieved successfully", res)
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	principal, _ := middleware.PrincipalFrom(c)

	res, err := h.adminService.GetUser(c.Request.Context(), principal, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "User retrieved successfully", res)
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	var input dto.UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, validator.Translate(err))
		return
	}
	principal, _ := middleware.PrincipalFrom(c)

	res, err := h.adminService.UpdateUser(c.Request.Context(), principal, id, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "User updated successfully", res)
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	principal, _ := middleware.PrincipalFrom(c)

	if err := h.adminService.DeleteUser(c.Request.Context(), principal, id); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "User deleted successfully", nil)
}

func userID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.BadRequest("Invalid user id"))
		return uuid.Nil, false
	}
	return id, true
}
