package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AlertTypeInfo    = "info"
	AlertTypeWarning = "warning"
	AlertTypeDanger  = "danger"
	AlertTypeSuccess = "success"

	AudienceAll = "all"
)

var (
	AlertTypes     = []string{AlertTypeInfo, AlertTypeWarning, AlertTypeDanger, AlertTypeSuccess}
	AlertAudiences = []string{AudienceAll, RoleAdmin, RoleModerator, RoleUser}
)

type AffectedArea struct {
	District string `json:"district,omitempty"`
	Tehsil   string `json:"tehsil,omitempty"`
	Village  string `json:"village,omitempty"`
}

type Alert struct {
	ID             uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string                            `gorm:"size:100;not null" json:"title"`
	Message        string                            `gorm:"size:500;not null" json:"message"`
	Type           string                            `gorm:"size:10;not null;index" json:"type"`
	Priority       string                            `gorm:"size:20;not null" json:"priority"`
	TargetAudience string                            `gorm:"size:100;not null" json:"-"`
	StartDate      time.Time                         `gorm:"not null;index" json:"startDate"`
	EndDate        *time.Time                        `gorm:"index" json:"endDate,omitempty"`
	IsActive       bool                              `gorm:"not null;index" json:"isActive"`
	CreatedByID    uuid.UUID                         `gorm:"type:uuid;not null;index" json:"createdBy"`
	CreatedBy      User                              `gorm:"foreignKey:CreatedByID" json:"-"`
	AffectedAreas  datatypes.JSONSlice[AffectedArea] `json:"affectedAreas,omitempty"`
	ActionRequired bool                              `gorm:"not null" json:"actionRequired"`
	ActionURL      string                            `gorm:"type:text" json:"actionUrl,omitempty"`
	CreatedAt      time.Time                         `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt      time.Time                         `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Priority == "" {
		a.Priority = PriorityMedium
	}
	if a.TargetAudience == "" {
		a.SetAudiences(nil)
	}
	return nil
}

// Audiences decodes TargetAudience, stored as ",all,user," so a single
// LIKE '%,role,%' matches any member.
func (a *Alert) Audiences() []string {
	var out []string
	for _, part := range strings.Split(a.TargetAudience, ",") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (a *Alert) SetAudiences(audiences []string) {
	if len(audiences) == 0 {
		audiences = []string{AudienceAll}
	}
	seen := make(map[string]bool, len(audiences))
	var b strings.Builder
	b.WriteString(",")
	for _, aud := range audiences {
		if aud == "" || seen[aud] {
			continue
		}
		seen[aud] = true
		b.WriteString(aud)
		b.WriteString(",")
	}
	a.TargetAudience = b.String()
}

// VisibleTo reports whether a principal with role may see the alert.
func (a *Alert) VisibleTo(role string) bool {
	if role == RoleAdmin {
		return true
	}
	return strings.Contains(a.TargetAudience, ","+AudienceAll+",") ||
		strings.Contains(a.TargetAudience, ","+role+",")
}

// AudienceMatch returns the LIKE patterns matching alerts visible to role.
func AudienceMatch(role string) []string {
	return []string{"%," + AudienceAll + ",%", "%," + role + ",%"}
}
