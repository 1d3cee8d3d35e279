package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ModuleTypePDF     = "pdf"
	ModuleTypeVideo   = "video"
	ModuleTypeYouTube = "youtube"

	ModuleStatusActive   = "active"
	ModuleStatusPending  = "pending"
	ModuleStatusInactive = "inactive"
)

var (
	ModuleTypes      = []string{ModuleTypePDF, ModuleTypeVideo, ModuleTypeYouTube}
	ModuleStatuses   = []string{ModuleStatusActive, ModuleStatusPending, ModuleStatusInactive}
	ModuleCategories = []string{
		"Natural Disasters",
		"Fire Safety",
		"Medical Emergency",
		"Evacuation Procedures",
		"Communication Protocols",
		"First Aid",
		"General Preparedness",
	}
)

// ModuleFile describes the stored asset of a pdf or video module.
type ModuleFile struct {
	Filename     string `gorm:"size:255" json:"filename"`
	OriginalName string `gorm:"size:255" json:"originalName"`
	Path         string `gorm:"type:text" json:"path"`
	Size         int64  `json:"size"`
	MimeType     string `gorm:"size:100" json:"mimetype"`
}

func (f ModuleFile) IsZero() bool {
	return f.Path == ""
}

type Module struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string     `gorm:"size:200;not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description,omitempty"`
	Category     string     `gorm:"size:50;not null;index" json:"category"`
	Type         string     `gorm:"size:10;not null;index" json:"type"`
	File         ModuleFile `gorm:"embedded;embeddedPrefix:file_" json:"file"`
	YoutubeURL   string     `gorm:"type:text" json:"youtubeUrl,omitempty"`
	UploadedByID uuid.UUID  `gorm:"type:uuid;not null;index" json:"uploadedBy"`
	UploadedBy   User       `gorm:"foreignKey:UploadedByID" json:"-"`
	Status       string     `gorm:"size:20;not null;index" json:"status"`
	Views        int64      `gorm:"not null;default:0" json:"views"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (m *Module) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Status == "" {
		m.Status = ModuleStatusActive
	}
	return nil
}
