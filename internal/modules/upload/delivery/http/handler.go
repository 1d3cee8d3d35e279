package handler

import (
	"mime/multipart"

	"github.com/gin-gonic/gin"
	"github.com/punjabready/portal-api/internal/middleware"
	upload "github.com/punjabready/portal-api/internal/modules/upload/service"
	"github.com/punjabready/portal-api/pkg/apperror"
	"github.com/punjabready/portal-api/pkg/response"
	"github.com/punjabready/portal-api/pkg/storage"
)

type UploadHandler struct {
	service upload.UploadService
}

func NewUploadHandler(service upload.UploadService) *UploadHandler {
	return &UploadHandler{service: service}
}

func (h *UploadHandler) UploadSingle(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.ResponseError(c, apperror.BadRequest("Please upload a file"))
		return
	}
	files, err := storage.SingleImage.Files(form)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	principal, _ := middleware.PrincipalFrom(c)

	res, err := h.service.UploadSingle(c.Request.Context(), principal.ID.String(), firstOrNil(files))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "File uploaded successfully", res)
}

func (h *UploadHandler) UploadMultiple(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.ResponseError(c, apperror.BadRequest("Please upload files"))
		return
	}
	files, err := storage.MultipleImages.Files(form)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	principal, _ := middleware.PrincipalFrom(c)

	res, err := h.service.UploadMultiple(c.Request.Context(), principal.ID.String(), files)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "Files uploaded successfully", res)
}

// DeleteFile removes uploads/<type>/<filename>; type defaults to reports.
func (h *UploadHandler) DeleteFile(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Query("type"), c.Param("filename")); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "File deleted successfully", nil)
}

func firstOrNil(files []*multipart.FileHeader) *multipart.FileHeader {
	if len(files) == 0 {
		return nil
	}
	return files[0]
}
