package query

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/access"
	"github.com/punjabready/portal-api/internal/entity"
	"github.com/punjabready/portal-api/internal/geo"
	"github.com/punjabready/portal-api/pkg/apperror"
	"github.com/punjabready/portal-api/pkg/database/dbtest"
	"gorm.io/datatypes"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		name              string
		page, limit, def  int
		wantPage, wantLim int
		wantOffset        int
	}{
		{"defaults", 0, 0, 10, 1, 10, 0},
		{"negative", -3, -1, 50, 1, 50, 0},
		{"second page", 2, 10, 10, 2, 10, 10},
		{"capped", 1, 1000, 10, 1, MaxLimit, 0},
		{"explicit", 3, 25, 100, 3, 25, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage(tt.page, tt.limit, tt.def)
			if p.Page != tt.wantPage || p.Limit != tt.wantLim || p.Offset() != tt.wantOffset {
				t.Errorf("NewPage() = %+v offset %d", p, p.Offset())
			}
		})
	}
}

func TestPageFromStrings(t *testing.T) {
	p := PageFromStrings("abc", "", DefaultMapLimit)
	if p.Page != 1 || p.Limit != DefaultMapLimit {
		t.Errorf("lenient parse = %+v", p)
	}
	p = PageFromStrings("4", "5", DefaultMapLimit)
	if p.Page != 4 || p.Limit != 5 {
		t.Errorf("parse = %+v", p)
	}
}

func TestNewResultPages(t *testing.T) {
	tests := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{250, 100, 3},
	}
	for _, tt := range tests {
		r := NewResult(Page{Page: 1, Limit: tt.limit}, tt.total)
		if r.Pages != tt.want {
			t.Errorf("pages(%d/%d) = %d, want %d", tt.total, tt.limit, r.Pages, tt.want)
		}
	}
}

func TestOversizedLimitPagesWithCap(t *testing.T) {
	p := PageFromStrings("3", "5000", 10)
	r := NewResult(p, 250)
	if p.Limit != MaxLimit || p.Offset() != 200 {
		t.Errorf("page = %+v offset %d", p, p.Offset())
	}
	if r.Pages != 3 || r.Limit != MaxLimit {
		t.Errorf("result = %+v", r)
	}
}

func TestFilterValidate(t *testing.T) {
	if err := (ReportFilter{Category: "all", Status: "in-progress"}).Validate(); err != nil {
		t.Errorf("valid filter rejected: %v", err)
	}
	err := ReportFilter{Status: "closed", Priority: "urgent"}.Validate()
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || len(appErr.Fields) != 2 {
		t.Fatalf("want 2 field errors, got %v", err)
	}
	if err := (ModuleFilter{Category: "Fire Safety", Type: "youtube"}).Validate(); err != nil {
		t.Errorf("module filter rejected: %v", err)
	}
	if err := (MapFilter{Type: "circle"}).Validate(); err == nil {
		t.Error("unknown map type accepted")
	}
}

func TestParseBounds(t *testing.T) {
	b, err := ParseBounds("31", "30", "76", "75")
	if err != nil {
		t.Fatal(err)
	}
	ring := b.Polygon()
	want := geo.Polygon{{75, 30}, {76, 30}, {76, 31}, {75, 31}, {75, 30}}
	for i := range want {
		if ring[i] != want[i] {
			t.Fatalf("ring = %v, want %v", ring, want)
		}
	}

	tests := []struct {
		name                     string
		north, south, east, west string
		wantMsg                  string
		wantFields               int
	}{
		{"missing two", "31", "", "76", "", MissingBoundsMessage, 2},
		{"not a number", "x", "30", "76", "75", "Invalid bounds parameters", 1},
		{"out of range", "91", "30", "76", "75", "Invalid bounds parameters", 1},
		{"inverted", "30", "31", "75", "76", "Invalid bounds parameters", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBounds(tt.north, tt.south, tt.east, tt.west)
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("want AppError, got %v", err)
			}
			if appErr.Message != tt.wantMsg || len(appErr.Fields) != tt.wantFields {
				t.Errorf("got %q with %d fields", appErr.Message, len(appErr.Fields))
			}
		})
	}
}

func TestReportScopeNeverLeaksOtherOwners(t *testing.T) {
	db := dbtest.Open(t, &entity.Report{})
	owner, other := uuid.New(), uuid.New()
	for i, by := range []uuid.UUID{owner, other, other, owner} {
		r := &entity.Report{
			Title:        "Broken culvert",
			Description:  "Water is overflowing the road",
			Category:     entity.ReportCategoryInfrastructure,
			ReportedByID: by,
		}
		if i == 1 {
			r.Category = entity.ReportCategoryHealth
		}
		if err := db.Create(r).Error; err != nil {
			t.Fatal(err)
		}
	}

	user := access.Principal{ID: owner, Role: entity.RoleUser}
	var rows []entity.Report
	if err := db.Scopes(ReportScope(ReportFilter{}, user)).Find(&rows).Error; err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("user sees %d reports, want 2", len(rows))
	}
	for _, r := range rows {
		if r.ReportedByID != owner {
			t.Errorf("leaked report of %s", r.ReportedByID)
		}
	}

	// A category filter that only matches another user's report yields nothing.
	rows = nil
	db.Scopes(ReportScope(ReportFilter{Category: entity.ReportCategoryHealth}, user)).Find(&rows)
	if len(rows) != 0 {
		t.Errorf("filter exposed %d foreign reports", len(rows))
	}

	var count int64
	mod := access.Principal{ID: uuid.New(), Role: entity.RoleModerator}
	db.Model(&entity.Report{}).Scopes(ReportScope(ReportFilter{}, mod)).Count(&count)
	if count != 4 {
		t.Errorf("moderator count = %d, want 4", count)
	}
}

func TestPagesAreDisjoint(t *testing.T) {
	db := dbtest.Open(t, &entity.Module{})
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		m := &entity.Module{
			Title:        "Module",
			Category:     "First Aid",
			Type:         entity.ModuleTypeYouTube,
			YoutubeURL:   "https://youtu.be/x",
			UploadedByID: uuid.New(),
			// Several rows share a timestamp so ordering relies on the id tie-breaker.
			CreatedAt: base.Add(time.Duration(i/3) * time.Minute),
		}
		if err := db.Create(m).Error; err != nil {
			t.Fatal(err)
		}
	}

	seen := map[uuid.UUID]bool{}
	for page := 1; page <= 3; page++ {
		var rows []entity.Module
		p := NewPage(page, 3, DefaultModuleLimit)
		if err := db.Scopes(Newest, p.Scope()).Find(&rows).Error; err != nil {
			t.Fatal(err)
		}
		for _, m := range rows {
			if seen[m.ID] {
				t.Fatalf("module %s appeared twice", m.ID)
			}
			seen[m.ID] = true
		}
	}
	if len(seen) != 7 {
		t.Errorf("covered %d modules, want 7", len(seen))
	}
}

func TestBoundsScopeSelectsCandidates(t *testing.T) {
	db := dbtest.Open(t, &entity.MapData{})
	inside := &entity.MapData{
		Type: entity.MapTypePoint, Title: "Civil hospital", Category: "healthcare",
		Geometry: datatypes.NewJSONType(geo.NewPoint(75.5, 30.5)), CreatedByID: uuid.New(), IsActive: true,
	}
	outside := &entity.MapData{
		Type: entity.MapTypePoint, Title: "Far school", Category: "education",
		Geometry: datatypes.NewJSONType(geo.NewPoint(77.1, 28.6)), CreatedByID: uuid.New(), IsActive: true,
	}
	for _, m := range []*entity.MapData{inside, outside} {
		if err := db.Create(m).Error; err != nil {
			t.Fatal(err)
		}
	}

	b, _ := ParseBounds("31", "30", "76", "75")
	var rows []entity.MapData
	if err := db.Scopes(b.Scope()).Find(&rows).Error; err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ID != inside.ID {
		t.Errorf("bounds candidates = %v", rows)
	}
}
