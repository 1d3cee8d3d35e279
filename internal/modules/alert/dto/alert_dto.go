package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/entity"
	commonDto "github.com/punjabready/portal-api/pkg/dto"
)

type AffectedArea struct {
	District string `json:"district" binding:"max=100"`
	Tehsil   string `json:"tehsil" binding:"max=100"`
	Village  string `json:"village" binding:"max=100"`
}

type CreateAlertRequest struct {
	Title          string         `json:"title" binding:"required,max=100"`
	Message        string         `json:"message" binding:"required,max=500"`
	Type           string         `json:"type" binding:"required,oneof=info warning danger success"`
	Priority       string         `json:"priority" binding:"omitempty,oneof=low medium high critical"`
	TargetAudience []string       `json:"targetAudience" binding:"omitempty,dive,oneof=all admin moderator user"`
	StartDate      *time.Time     `json:"startDate"`
	EndDate        *time.Time     `json:"endDate"`
	IsActive       *bool          `json:"isActive"`
	AffectedAreas  []AffectedArea `json:"affectedAreas" binding:"omitempty,dive"`
	ActionRequired bool           `json:"actionRequired"`
	ActionURL      string         `json:"actionUrl" binding:"omitempty,url"`
}

type UpdateAlertRequest struct {
	Title          *string        `json:"title" binding:"omitempty,min=1,max=100"`
	Message        *string        `json:"message" binding:"omitempty,min=1,max=500"`
	Type           *string        `json:"type" binding:"omitempty,oneof=info warning danger success"`
	Priority       *string        `json:"priority" binding:"omitempty,oneof=low medium high critical"`
	TargetAudience []string       `json:"targetAudience" binding:"omitempty,dive,oneof=all admin moderator user"`
	StartDate      *time.Time     `json:"startDate"`
	EndDate        *time.Time     `json:"endDate"`
	IsActive       *bool          `json:"isActive"`
	AffectedAreas  []AffectedArea `json:"affectedAreas" binding:"omitempty,dive"`
	ActionRequired *bool          `json:"actionRequired"`
	ActionURL      *string        `json:"actionUrl" binding:"omitempty,url"`
}

func Areas(in []AffectedArea) []entity.AffectedArea {
	out := make([]entity.AffectedArea, 0, len(in))
	for _, a := range in {
		out = append(out, entity.AffectedArea{District: a.District, Tehsil: a.Tehsil, Village: a.Village})
	}
	return out
}

type AlertResponse struct {
	ID             uuid.UUID             `json:"id"`
	Title          string                `json:"title"`
	Message        string                `json:"message"`
	Type           string                `json:"type"`
	Priority       string                `json:"priority"`
	TargetAudience []string              `json:"targetAudience"`
	StartDate      time.Time             `json:"startDate"`
	EndDate        *time.Time            `json:"endDate,omitempty"`
	IsActive       bool                  `json:"isActive"`
	CreatedBy      commonDto.UserSummary `json:"createdBy"`
	AffectedAreas  []entity.AffectedArea `json:"affectedAreas"`
	ActionRequired bool                  `json:"actionRequired"`
	ActionURL      string                `json:"actionUrl,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

func NewAlertResponse(a *entity.Alert) AlertResponse {
	res := AlertResponse{
		ID:             a.ID,
		Title:          a.Title,
		Message:        a.Message,
		Type:           a.Type,
		Priority:       a.Priority,
		TargetAudience: a.Audiences(),
		StartDate:      a.StartDate,
		EndDate:        a.EndDate,
		IsActive:       a.IsActive,
		CreatedBy: commonDto.UserSummary{
			ID:         a.CreatedBy.ID,
			Name:       a.CreatedBy.Name,
			Email:      a.CreatedBy.Email,
			Department: a.CreatedBy.Department,
		},
		AffectedAreas:  []entity.AffectedArea(a.AffectedAreas),
		ActionRequired: a.ActionRequired,
		ActionURL:      a.ActionURL,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
	if res.CreatedBy.ID == uuid.Nil {
		res.CreatedBy.ID = a.CreatedByID
	}
	if res.AffectedAreas == nil {
		res.AffectedAreas = []entity.AffectedArea{}
	}
	return res
}

type AlertEnvelope struct {
	Alert AlertResponse `json:"alert"`
}

type AlertListResponse struct {
	Alerts     []AlertResponse      `json:"alerts"`
	Pagination commonDto.Pagination `json:"pagination"`
}

const (
	EventCreated = "alert.created"
	EventUpdated = "alert.updated"
	EventDeleted = "alert.deleted"
)

// AlertEvent is one message on the live alert feed. Deletions carry only
// the id and audience of the removed alert.
type AlertEvent struct {
	Event    string         `json:"event"`
	ID       uuid.UUID      `json:"id"`
	Audience []string       `json:"targetAudience"`
	Alert    *AlertResponse `json:"alert,omitempty"`
}
