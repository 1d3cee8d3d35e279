package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReportCategoryInfrastructure = "infrastructure"
	ReportCategoryHealth         = "health"
	ReportCategoryEducation      = "education"
	ReportCategoryAgriculture    = "agriculture"
	ReportCategoryOther          = "other"

	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"

	ReportStatusPending    = "pending"
	ReportStatusInProgress = "in-progress"
	ReportStatusResolved   = "resolved"
	ReportStatusRejected   = "rejected"
)

var (
	ReportCategories = []string{ReportCategoryInfrastructure, ReportCategoryHealth, ReportCategoryEducation, ReportCategoryAgriculture, ReportCategoryOther}
	Priorities       = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
	ReportStatuses   = []string{ReportStatusPending, ReportStatusInProgress, ReportStatusResolved, ReportStatusRejected}
)

// Location is free-form; every part is optional.
type Location struct {
	Address   string   `gorm:"size:200" json:"address,omitempty"`
	Latitude  *float64 `json:"lat,omitempty"`
	Longitude *float64 `json:"lng,omitempty"`
	District  string   `gorm:"size:100;index" json:"district,omitempty"`
	Tehsil    string   `gorm:"size:100" json:"tehsil,omitempty"`
	Village   string   `gorm:"size:100" json:"village,omitempty"`
}

type ReportImage struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	ReportID     uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`
	Filename     string    `gorm:"size:255;not null" json:"filename"`
	OriginalName string    `gorm:"size:255" json:"originalName"`
	Path         string    `gorm:"type:text;not null" json:"path"`
	Position     int       `gorm:"not null" json:"-"`
	UploadedAt   time.Time `gorm:"autoCreateTime" json:"uploadDate"`
}

type Report struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Title           string        `gorm:"size:100;not null" json:"title"`
	Description     string        `gorm:"type:text;not null" json:"description"`
	Category        string        `gorm:"size:30;not null;index:idx_reports_category_status" json:"category"`
	Priority        string        `gorm:"size:20;not null" json:"priority"`
	Status          string        `gorm:"size:20;not null;index:idx_reports_category_status" json:"status"`
	Location        Location      `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	ReportedByID    uuid.UUID     `gorm:"type:uuid;not null;index" json:"reportedBy"`
	ReportedBy      User          `gorm:"foreignKey:ReportedByID" json:"-"`
	AssignedToID    *uuid.UUID    `gorm:"type:uuid;index" json:"assignedTo,omitempty"`
	AssignedTo      *User         `gorm:"foreignKey:AssignedToID" json:"-"`
	Images          []ReportImage `gorm:"foreignKey:ReportID" json:"images"`
	ResolutionNotes string        `gorm:"type:text" json:"resolutionNotes,omitempty"`
	ResolvedAt      *time.Time    `json:"resolvedAt,omitempty"`
	CreatedAt       time.Time     `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt       time.Time     `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	if r.Status == "" {
		r.Status = ReportStatusPending
	}
	return nil
}

// ApplyStatus sets the status and stamps ResolvedAt the first time the
// report enters the resolved state.
func (r *Report) ApplyStatus(status string, now time.Time) {
	if status == ReportStatusResolved && r.Status != ReportStatusResolved && r.ResolvedAt == nil {
		r.ResolvedAt = &now
	}
	r.Status = status
}
