package handler

import (
	"encoding/json"
	"mime/multipart"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/middleware"
	"github.com/punjabready/portal-api/internal/modules/report/dto"
	report "github.com/punjabready/portal-api/internal/modules/report/service"
	"github.com/punjabready/portal-api/internal/query"
	"github.com/punjabready/portal-api/pkg/apperror"
	"github.com/punjabready/portal-api/pkg/response"
	"github.com/punjabready/portal-api/pkg/storage"
	"github.com/punjabready/portal-api/pkg/validator"
)

type ReportHandler struct {
	service report.ReportService
}

func NewReportHandler(service report.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) GetReports(c *gin.Context) {
	var filter query.ReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ResponseError(c, validator.Translate(err))
		return
	}
	page := query.PageFromStrings(c.Query("page"), c.Query("limit"), query.DefaultReportLimit)
	principal, _ := middleware.PrincipalFrom(c)

	res, err := h.service.GetReports(c.Request.Context(), principal, filter, page)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "Reports retrieved successfully", res)
}

func (h *ReportHandler) GetReport(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}
	principal, _ := middleware.PrincipalFrom(c)

	res, err := h.service.GetReport(c.Request.Context(), principal, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "Report retrieved successfully", res)
}

// CreateReport accepts a JSON body, or a multipart form with up to five
// files under "images".
func (h *ReportHandler) CreateReport(c *gin.Context) {
	var req dto.CreateReportRequest
	var images []*multipart.FileHeader

	if strings.HasPrefix(c.ContentType(), binding.MIMEMultipartPOSTForm) {
		if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
			response.ResponseError(c, validator.Translate(err))
			return
		}
		if raw := c.PostForm("location"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.Location); err != nil {
				response.ResponseError(c, apperror.BadRequest("Invalid location"))
				return
			}
			if err := binding.Validator.ValidateStruct(&req); err != nil {
				response.ResponseError(c, validator.Translate(err))
				return
			}
		}

		form, err := c.MultipartForm()
		if err != nil {
			response.ResponseError(c, apperror.BadRequest("Upload failed"))
			return
		}
		if images, err = storage.ReportImages.Files(form); err != nil {
			response.ResponseError(c, err)
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, validator.Translate(err))
		return
	}

	principal, _ := middleware.PrincipalFrom(c)
	res, err := h.service.CreateReport(c.Request.Context(), principal, req, images)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Created(c, "Report created successfully", res)
}

func (h *ReportHandler) UpdateReport(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}

	var req dto.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, validator.Translate(err))
		return
	}
	principal, _ := middleware.PrincipalFrom(c)

	res, err := h.service.UpdateReport(c.Request.Context(), principal, id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "Report updated successfully", res)
}

func (h *ReportHandler) DeleteReport(c *gin.Context) {
	id, ok := reportID(c)
	if !ok {
		return
	}
	principal, _ := middleware.PrincipalFrom(c)

	if err := h.service.DeleteReport(c.Request.Context(), principal, id); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "Report deleted successfully", nil)
}

func (h *ReportHandler) GetStats(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	stats, err := h.service.GetStats(c.Request.Context(), principal)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "Report statistics retrieved successfully", stats)
}

func reportID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.BadRequest("Invalid report id"))
		return uuid.Nil, false
	}
	return id, true
}
