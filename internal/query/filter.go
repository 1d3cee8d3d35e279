package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/punjabready/portal-api/internal/access"
	"github.com/punjabready/portal-api/internal/entity"
	"github.com/punjabready/portal-api/pkg/apperror"
	"gorm.io/gorm"
)

// Any is the sentinel clients send to mean "no constraint".
const Any = "all"

func set(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != Any
}

type enumCheck struct {
	field   string
	value   string
	allowed []string
}

func checkEnums(checks ...enumCheck) error {
	var fields []apperror.FieldError
	for _, c := range checks {
		if set(c.value) && !entity.Contains(c.allowed, strings.TrimSpace(c.value)) {
			fields = append(fields, apperror.FieldError{
				Field:   c.field,
				Message: fmt.Sprintf("%s must be one of: %s", c.field, strings.Join(c.allowed, ", ")),
			})
		}
	}
	if len(fields) > 0 {
		return apperror.Validation("Invalid filter", fields...)
	}
	return nil
}

func eq(db *gorm.DB, column, v string) *gorm.DB {
	if set(v) {
		return db.Where(column+" = ?", strings.TrimSpace(v))
	}
	return db
}

// likeTerm escapes LIKE wildcards in a user supplied search term.
func likeTerm(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(strings.TrimSpace(s))) + "%"
}

type ReportFilter struct {
	Category string `form:"category"`
	Status   string `form:"status"`
	Priority string `form:"priority"`
	District string `form:"district"`
}

func (f ReportFilter) Validate() error {
	return checkEnums(
		enumCheck{"category", f.Category, entity.ReportCategories},
		enumCheck{"status", f.Status, entity.ReportStatuses},
		enumCheck{"priority", f.Priority, entity.Priorities},
	)
}

// ReportScope applies f and then, for non-privileged principals, restricts
// rows to their own reports. The owner clause is appended last and cannot
// be influenced by the filter.
func ReportScope(f ReportFilter, p access.Principal) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = eq(db, "category", f.Category)
		db = eq(db, "status", f.Status)
		db = eq(db, "priority", f.Priority)
		db = eq(db, "location_district", f.District)

		if s := access.ReportListScope(p); !s.AllOwners {
			db = db.Where("reported_by_id = ?", s.OwnerID)
		}
		return db
	}
}

type MapFilter struct {
	Category        string `form:"category"`
	District        string `form:"district"`
	Type            string `form:"type"`
	IncludeInactive bool   `form:"includeInactive"`
}

func (f MapFilter) Validate() error {
	return checkEnums(
		enumCheck{"category", f.Category, entity.MapCategories},
		enumCheck{"type", f.Type, entity.MapTypes},
	)
}

// Scope hides inactive features unless an admin explicitly asks for them.
func (f MapFilter) Scope(p access.Principal) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !(f.IncludeInactive && access.IsAdmin(p.Role)) {
			db = db.Where("is_active = ?", true)
		}
		db = eq(db, "category", f.Category)
		db = eq(db, "district", f.District)
		return eq(db, "type", f.Type)
	}
}

type ModuleFilter struct {
	Category string `form:"category"`
	Type     string `form:"type"`
	Status   string `form:"status"`
	Search   string `form:"search"`
}

func (f ModuleFilter) Validate() error {
	return checkEnums(
		enumCheck{"category", f.Category, entity.ModuleCategories},
		enumCheck{"type", f.Type, entity.ModuleTypes},
		enumCheck{"status", f.Status, entity.ModuleStatuses},
	)
}

func (f ModuleFilter) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = eq(db, "category", f.Category)
		db = eq(db, "type", f.Type)
		db = eq(db, "status", f.Status)
		if strings.TrimSpace(f.Search) != "" {
			term := likeTerm(f.Search)
			db = db.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, term, term)
		}
		return db
	}
}

type UserFilter struct {
	Role     string `form:"role"`
	Search   string `form:"search"`
	IsActive *bool  `form:"isActive"`
}

func (f UserFilter) Validate() error {
	return checkEnums(enumCheck{"role", f.Role, entity.Roles})
}

func (f UserFilter) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = eq(db, "role", f.Role)
		if f.IsActive != nil {
			db = db.Where("is_active = ?", *f.IsActive)
		}
		if strings.TrimSpace(f.Search) != "" {
			term := likeTerm(f.Search)
			db = db.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`, term, term)
		}
		return db
	}
}

type AlertFilter struct {
	Type       string `form:"type"`
	Priority   string `form:"priority"`
	ActiveOnly bool   `form:"active"`
}

func (f AlertFilter) Validate() error {
	return checkEnums(
		enumCheck{"type", f.Type, entity.AlertTypes},
		enumCheck{"priority", f.Priority, entity.Priorities},
	)
}

// AlertScope restricts rows to alerts whose audience includes the
// principal's role. Admins see every alert. ActiveOnly additionally keeps
// alerts that are switched on and inside their date window at now.
func AlertScope(f AlertFilter, p access.Principal, now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = eq(db, "type", f.Type)
		db = eq(db, "priority", f.Priority)
		if !access.IsAdmin(p.Role) {
			patterns := entity.AudienceMatch(p.Role)
			db = db.Where("(target_audience LIKE ? OR target_audience LIKE ?)", patterns[0], patterns[1])
		}
		if f.ActiveOnly {
			db = db.Where("is_active = ?", true).
				Where("start_date <= ?", now).
				Where("(end_date IS NULL OR end_date >= ?)", now)
		}
		return db
	}
}
