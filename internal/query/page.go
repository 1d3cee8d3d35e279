// Package query turns optional list parameters into scoped gorm queries.
package query

import (
	"strconv"

	"github.com/punjabready/portal-api/pkg/dto"
	"gorm.io/gorm"
)

// MaxLimit caps every page size.
const MaxLimit = 100

// Default page sizes per resource.
const (
	DefaultReportLimit = 10
	DefaultMapLimit    = 50
	DefaultModuleLimit = 100
	DefaultUserLimit   = 10
	DefaultAlertLimit  = 20
)

// Page is a normalised page request.
type Page struct {
	Page  int
	Limit int
}

// NewPage clamps page to at least 1 and limit to [1, MaxLimit], using
// defaultLimit when limit is not positive.
func NewPage(page, limit, defaultLimit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Page: page, Limit: limit}
}

// PageFromStrings parses raw query values leniently; anything that is not
// an integer falls back to the defaults.
func PageFromStrings(page, limit string, defaultLimit int) Page {
	p, _ := strconv.Atoi(page)
	l, _ := strconv.Atoi(limit)
	return NewPage(p, l, defaultLimit)
}

func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Scope applies offset and limit.
func (p Page) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.Limit)
	}
}

// Result is the pagination summary of one page.
type Result struct {
	Current int
	Pages   int
	Limit   int
	Total   int64
}

// NewResult computes the summary for p given the total match count.
func NewResult(p Page, total int64) Result {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Result{Current: p.Page, Pages: pages, Limit: p.Limit, Total: total}
}

// Pagination renders r as {current, pages, total}.
func (r Result) Pagination() dto.Pagination {
	return dto.Pagination{Current: r.Current, Pages: r.Pages, Total: r.Total}
}

// Newest orders by creation time descending with id as tie-breaker so
// consecutive pages never overlap.
func Newest(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}
