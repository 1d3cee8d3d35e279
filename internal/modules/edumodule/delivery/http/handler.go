package handler

import (
	"mime/multipart"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/middleware"
	"github.com/punjabready/portal-api/internal/modules/edumodule/dto"
	edumodule "github.com/punjabready/portal-api/internal/modules/edumodule/service"
	"github.com/punjabready/portal-api/internal/query"
	"github.com/punjabready/portal-api/pkg/apperror"
	"github.com/punjabready/portal-api/pkg/response"
	"github.com/punjabready/portal-api/pkg/storage"
	"github.com/punjabready/portal-api/pkg/validator"
)

type ModuleHandler struct {
	service edumodule.ModuleService
}

func NewModuleHandler(service edumodule.ModuleService) *ModuleHandler {
	return &ModuleHandler{service: service}
}

func (h *ModuleHandler) GetModules(c *gin.Context) {
	var filter query.ModuleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ResponseError(c, validator.Translate(err))
		return
	}
	page := query.PageFromStrings(c.Query("page"), c.Query("limit"), query.DefaultModuleLimit)

	res, err := h.service.GetModules(c.Request.Context(), filter, page)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "Modules retrieved successfully", res)
}

func (h *ModuleHandler) SearchModules(c *gin.Context) {
	page := query.PageFromStrings(c.Query("page"), c.Query("limit"), query.DefaultModuleLimit)

	res, err := h.service.SearchModules(c.Request.Context(), c.Query("q"), page)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "Modules retrieved successfully", res)
}

func (h *ModuleHandler) GetModule(c *gin.Context) {
	id, ok := moduleID(c)
	if !ok {
		return
	}

	res, err := h.service.GetModule(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "Module retrieved successfully", res)
}

// CreateModule takes a multipart form with an optional "file" part. JSON is
// accepted for youtube modules.
func (h *ModuleHandler) CreateModule(c *gin.Context) {
	var req dto.CreateModuleRequest
	if err := c.ShouldBind(&req); err != nil {
		response.ResponseError(c, validator.Translate(err))
		return
	}
	file, ok := moduleFile(c)
	if !ok {
		return
	}
	principal, _ := middleware.PrincipalFrom(c)

	res, err := h.service.CreateModule(c.Request.Context(), principal, req, file)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Created(c, "Module uploaded successfully", res)
}

func (h *ModuleHandler) UpdateModule(c *gin.Context) {
	id, ok := moduleID(c)
	if !ok {
		return
	}

	var req dto.UpdateModuleRequest
	if err := c.ShouldBind(&req); err != nil {
		response.ResponseError(c, validator.Translate(err))
		return
	}
	file, ok := moduleFile(c)
	if !ok {
		return
	}
	principal, _ := middleware.PrincipalFrom(c)

	res, err := h.service.UpdateModule(c.Request.Context(), principal, id, req, file)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "Module updated successfully", res)
}

func (h *ModuleHandler) DeleteModule(c *gin.Context) {
	id, ok := moduleID(c)
	if !ok {
		return
	}
	principal, _ := middleware.PrincipalFrom(c)

	if err := h.service.DeleteModule(c.Request.Context(), principal, id); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "Module deleted successfully", nil)
}

func moduleID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.BadRequest("Invalid module id"))
		return uuid.Nil, false
	}
	return id, true
}

// moduleFile returns the single "file" part of a multipart request, or nil.
func moduleFile(c *gin.Context) (*multipart.FileHeader, bool) {
	if !strings.HasPrefix(c.ContentType(), binding.MIMEMultipartPOSTForm) {
		return nil, true
	}
	form, err := c.MultipartForm()
	if err != nil {
		response.ResponseError(c, apperror.BadRequest("Invalid multipart form"))
		return nil, false
	}
	files, err := storage.ModuleFile.Files(form)
	if err != nil {
		response.ResponseError(c, err)
		return nil, false
	}
	if len(files) == 0 {
		return nil, true
	}
	return files[0], true
}
