package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/entity"
	commonDto "github.com/punjabready/portal-api/pkg/dto"
)

type LocationInput struct {
	Address  string   `json:"address" binding:"max=200"`
	Lat      *float64 `json:"lat" binding:"omitempty,latitude"`
	Lng      *float64 `json:"lng" binding:"omitempty,longitude"`
	District string   `json:"district" binding:"max=100"`
	Tehsil   string   `json:"tehsil" binding:"max=100"`
	Village  string   `json:"village" binding:"max=100"`
}

func (l LocationInput) Entity() entity.Location {
	return entity.Location{
		Address:   l.Address,
		Latitude:  l.Lat,
		Longitude: l.Lng,
		District:  l.District,
		Tehsil:    l.Tehsil,
		Village:   l.Village,
	}
}

// CreateReportRequest binds from JSON or from multipart form fields. In a
// multipart body, location is a JSON-encoded form value.
type CreateReportRequest struct {
	Title       string        `json:"title" form:"title" binding:"required,min=5,max=100"`
	Description string        `json:"description" form:"description" binding:"required,min=10,max=1000"`
	Category    string        `json:"category" form:"category" binding:"required,oneof=infrastructure health education agriculture other"`
	Priority    string        `json:"priority" form:"priority" binding:"omitempty,oneof=low medium high critical"`
	Location    LocationInput `json:"location" form:"-"`
}

// UpdateReportRequest is the raw body of PUT /reports/:id. Every field is
// optional; Sanitize turns it into the command the caller may apply.
type UpdateReportRequest struct {
	Title           *string        `json:"title" binding:"omitempty,min=5,max=100"`
	Description     *string        `json:"description" binding:"omitempty,min=10,max=1000"`
	Category        *string        `json:"category" binding:"omitempty,oneof=infrastructure health education agriculture other"`
	Priority        *string        `json:"priority" binding:"omitempty,oneof=low medium high critical"`
	Location        *LocationInput `json:"location"`
	Status          *string        `json:"status" binding:"omitempty,oneof=pending in-progress resolved rejected"`
	AssignedTo      *string        `json:"assignedTo" binding:"omitempty,uuid"`
	ResolutionNotes *string        `json:"resolutionNotes" binding:"omitempty,max=1000"`
}

// ReportUpdate holds only the fields the caller is allowed to change.
type ReportUpdate struct {
	Title       *string
	Description *string
	Category    *string
	Priority    *string
	Location    *LocationInput

	// Set only for privileged callers.
	Status          *string
	AssignedTo      *string
	ResolutionNotes *string
}

// Sanitize drops status, assignment and resolution notes unless privileged.
func (r UpdateReportRequest) Sanitize(privileged bool) ReportUpdate {
	u := ReportUpdate{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Priority:    r.Priority,
		Location:    r.Location,
	}
	if privileged {
		u.Status = r.Status
		u.AssignedTo = r.AssignedTo
		u.ResolutionNotes = r.ResolutionNotes
	}
	return u
}

type ReportResponse struct {
	ID              uuid.UUID              `json:"id"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	Category        string                 `json:"category"`
	Priority        string                 `json:"priority"`
	Status          string                 `json:"status"`
	Location        entity.Location        `json:"location"`
	ReportedBy      commonDto.UserSummary  `json:"reportedBy"`
	AssignedTo      *commonDto.UserSummary `json:"assignedTo"`
	Images          []entity.ReportImage   `json:"images"`
	ResolutionNotes string                 `json:"resolutionNotes,omitempty"`
	ResolvedAt      *time.Time             `json:"resolvedAt,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

func NewReportResponse(r *entity.Report) ReportResponse {
	res := ReportResponse{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		Category:        r.Category,
		Priority:        r.Priority,
		Status:          r.Status,
		Location:        r.Location,
		ReportedBy:      Summary(&r.ReportedBy),
		Images:          r.Images,
		ResolutionNotes: r.ResolutionNotes,
		ResolvedAt:      r.ResolvedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	// An unloaded owner still reports its id.
	if res.ReportedBy.ID == uuid.Nil {
		res.ReportedBy.ID = r.ReportedByID
	}
	if r.AssignedTo != nil {
		s := Summary(r.AssignedTo)
		res.AssignedTo = &s
	} else if r.AssignedToID != nil {
		res.AssignedTo = &commonDto.UserSummary{ID: *r.AssignedToID}
	}
	if res.Images == nil {
		res.Images = []entity.ReportImage{}
	}
	return res
}

// Summary projects a user onto the fields safe to embed in other records.
func Summary(u *entity.User) commonDto.UserSummary {
	return commonDto.UserSummary{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Department: u.Department,
	}
}

type ReportEnvelope struct {
	Report ReportResponse `json:"report"`
}

type ReportListResponse struct {
	Reports    []ReportResponse     `json:"reports"`
	Pagination commonDto.Pagination `json:"pagination"`
}

type StatusCounts struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Resolved   int64 `json:"resolved"`
}

type CategoryStats struct {
	ID         string `json:"_id"`
	Count      int64  `json:"count"`
	Pending    int64  `json:"pending"`
	InProgress int64  `json:"inProgress"`
	Resolved   int64  `json:"resolved"`
}

type DistrictStats struct {
	ID    string `json:"_id"`
	Count int64  `json:"count"`
}

type ReportStats struct {
	Overall    StatusCounts    `json:"overall"`
	ByCategory []CategoryStats `json:"byCategory"`
	ByDistrict []DistrictStats `json:"byDistrict"`
}
