package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/entity"
	commonDto "github.com/punjabready/portal-api/pkg/dto"
)

// CreateModuleRequest is bound from the multipart form of POST /modules.
// Presence of title, category and type is checked by the service so the
// error matches what clients already expect.
type CreateModuleRequest struct {
	Title       string `form:"title" json:"title" binding:"max=200"`
	Description string `form:"description" json:"description" binding:"max=1000"`
	Category    string `form:"category" json:"category"`
	Type        string `form:"type" json:"type"`
	YoutubeURL  string `form:"youtubeUrl" json:"youtubeUrl" binding:"omitempty,youtube_url"`
	Status      string `form:"status" json:"status" binding:"omitempty,oneof=active pending inactive"`
}

type UpdateModuleRequest struct {
	Title       *string `form:"title" json:"title" binding:"omitempty,min=1,max=200"`
	Description *string `form:"description" json:"description" binding:"omitempty,max=1000"`
	Category    *string `form:"category" json:"category"`
	Type        *string `form:"type" json:"type" binding:"omitempty,oneof=pdf video youtube"`
	YoutubeURL  *string `form:"youtubeUrl" json:"youtubeUrl" binding:"omitempty,youtube_url"`
	Status      *string `form:"status" json:"status" binding:"omitempty,oneof=active pending inactive"`
}

type ModuleResponse struct {
	ID          uuid.UUID             `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    string                `json:"category"`
	Type        string                `json:"type"`
	File        *entity.ModuleFile    `json:"file,omitempty"`
	YoutubeURL  string                `json:"youtubeUrl,omitempty"`
	UploadedBy  commonDto.UserSummary `json:"uploadedBy"`
	Status      string                `json:"status"`
	Views       int64                 `json:"views"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

func NewModuleResponse(m *entity.Module) ModuleResponse {
	res := ModuleResponse{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Category:    m.Category,
		Type:        m.Type,
		YoutubeURL:  m.YoutubeURL,
		UploadedBy: commonDto.UserSummary{
			ID:         m.UploadedBy.ID,
			Name:       m.UploadedBy.Name,
			Email:      m.UploadedBy.Email,
			Department: m.UploadedBy.Department,
		},
		Status:    m.Status,
		Views:     m.Views,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if res.UploadedBy.ID == uuid.Nil {
		res.UploadedBy.ID = m.UploadedByID
	}
	if !m.File.IsZero() {
		f := m.File
		res.File = &f
	}
	return res
}

type ModuleEnvelope struct {
	Module ModuleResponse `json:"module"`
}

// ModulePage is the module listing envelope. Unlike other listings it keeps
// the pagination fields at the top level.
type ModulePage struct {
	Modules     []ModuleResponse `json:"modules"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
	Total       int64            `json:"total"`
}
