package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/entity"
	"github.com/punjabready/portal-api/internal/geo"
	commonDto "github.com/punjabready/portal-api/pkg/dto"
)

type CreateMapDataRequest struct {
	Type        string         `json:"type" binding:"required,oneof=point polygon line"`
	Title       string         `json:"title" binding:"required,min=2,max=100"`
	Description string         `json:"description" binding:"max=1000"`
	Category    string         `json:"category" binding:"required,oneof=healthcare education infrastructure agriculture transport administration other"`
	Coordinates []float64      `json:"coordinates"`
	Geometry    geo.Geometry   `json:"geometry"`
	Properties  map[string]any `json:"properties"`
	District    string         `json:"district" binding:"max=100"`
	Tehsil      string         `json:"tehsil" binding:"max=100"`
	Village     string         `json:"village" binding:"max=100"`
}

type UpdateMapDataRequest struct {
	Type        *string         `json:"type" binding:"omitempty,oneof=point polygon line"`
	Title       *string         `json:"title" binding:"omitempty,min=2,max=100"`
	Description *string         `json:"description" binding:"omitempty,max=1000"`
	Category    *string         `json:"category" binding:"omitempty,oneof=healthcare education infrastructure agriculture transport administration other"`
	Coordinates *[]float64      `json:"coordinates"`
	Geometry    *geo.Geometry   `json:"geometry"`
	Properties  *map[string]any `json:"properties"`
	District    *string         `json:"district" binding:"omitempty,max=100"`
	Tehsil      *string         `json:"tehsil" binding:"omitempty,max=100"`
	Village     *string         `json:"village" binding:"omitempty,max=100"`
	IsActive    *bool           `json:"isActive"`
}

type MapDataResponse struct {
	ID          uuid.UUID             `json:"id"`
	Type        string                `json:"type"`
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	Category    string                `json:"category"`
	Coordinates []float64             `json:"coordinates"`
	Geometry    geo.Geometry          `json:"geometry"`
	Properties  map[string]any        `json:"properties,omitempty"`
	District    string                `json:"district,omitempty"`
	Tehsil      string                `json:"tehsil,omitempty"`
	Village     string                `json:"village,omitempty"`
	CreatedBy   commonDto.UserSummary `json:"createdBy"`
	IsActive    bool                  `json:"isActive"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

func NewMapDataResponse(m *entity.MapData) MapDataResponse {
	res := MapDataResponse{
		ID:          m.ID,
		Type:        m.Type,
		Title:       m.Title,
		Description: m.Description,
		Category:    m.Category,
		Coordinates: []float64(m.Coordinates),
		Geometry:    m.Geometry.Data(),
		Properties:  map[string]any(m.Properties),
		District:    m.District,
		Tehsil:      m.Tehsil,
		Village:     m.Village,
		CreatedBy: commonDto.UserSummary{
			ID:         m.CreatedBy.ID,
			Name:       m.CreatedBy.Name,
			Email:      m.CreatedBy.Email,
			Department: m.CreatedBy.Department,
		},
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if res.CreatedBy.ID == uuid.Nil {
		res.CreatedBy.ID = m.CreatedByID
	}
	if res.Coordinates == nil {
		res.Coordinates = []float64{}
	}
	return res
}

type MapDataEnvelope struct {
	MapData MapDataResponse `json:"mapData"`
}

type MapDataListResponse struct {
	MapData    []MapDataResponse    `json:"mapData"`
	Pagination commonDto.Pagination `json:"pagination"`
}

type MapDataBoundsResponse struct {
	MapData []MapDataResponse `json:"mapData"`
}
