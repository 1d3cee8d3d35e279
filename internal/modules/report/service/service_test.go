package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/access"
	"github.com/punjabready/portal-api/internal/entity"
	"github.com/punjabready/portal-api/internal/modules/report/dto"
	"github.com/punjabready/portal-api/internal/modules/report/repository"
	userRepo "github.com/punjabready/portal-api/internal/modules/user/repository"
	"github.com/punjabready/portal-api/internal/query"
	"github.com/punjabready/portal-api/pkg/apperror"
	"github.com/punjabready/portal-api/pkg/database/dbtest"
	"github.com/punjabready/portal-api/pkg/storage"
)

type fixture struct {
	svc       ReportService
	users     userRepo.UserRepository
	owner     access.Principal
	stranger  access.Principal
	moderator access.Principal
	admin     access.Principal
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := dbtest.Open(t, &entity.User{}, &entity.Report{}, &entity.ReportImage{})
	users := userRepo.NewUserRepository(db)
	files, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	f := fixture{
		svc:   NewReportService(repository.NewReportRepository(db), users, files),
		users: users,
	}
	for _, u := range []struct {
		dst   *access.Principal
		email string
		role  string
	}{
		{&f.owner, "owner@punjab.gov.in", entity.RoleUser},
		{&f.stranger, "stranger@punjab.gov.in", entity.RoleUser},
		{&f.moderator, "mod@punjab.gov.in", entity.RoleModerator},
		{&f.admin, "admin@punjab.gov.in", entity.RoleAdmin},
	} {
		user := &entity.User{Name: "Officer", Email: u.email, PasswordHash: "x", Role: u.role, IsActive: true, Department: "Revenue"}
		if err := users.Create(context.Background(), user); err != nil {
			t.Fatal(err)
		}
		*u.dst = access.Principal{ID: user.ID, Role: user.Role}
	}
	return f
}

func pothole() dto.CreateReportRequest {
	return dto.CreateReportRequest{
		Title:       "Pothole",
		Description: "Large pothole on main road",
		Category:    entity.ReportCategoryInfrastructure,
	}
}

func strPtr(s string) *string { return &s }

func imageHeaders(t *testing.T, n int) []*multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for i := 0; i < n; i++ {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="images"; filename="site.jpg"`)
		h.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte("jpeg"))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatal(err)
	}
	return req.MultipartForm.File["images"]
}

func TestCreateReportDefaults(t *testing.T) {
	f := setup(t)

	res, err := f.svc.CreateReport(context.Background(), f.owner, pothole(), nil)
	if err != nil {
		t.Fatal(err)
	}
	r := res.Report
	if r.Status != entity.ReportStatusPending || r.Priority != entity.PriorityMedium {
		t.Errorf("defaults = %s/%s", r.Status, r.Priority)
	}
	if r.ReportedBy.ID != f.owner.ID || r.ReportedBy.Email != "owner@punjab.gov.in" {
		t.Errorf("reportedBy = %+v", r.ReportedBy)
	}
	if r.Images == nil || len(r.Images) != 0 {
		t.Errorf("images = %v", r.Images)
	}
}

func TestCreateAndDeleteReportWithImages(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.svc.CreateReport(ctx, f.owner, pothole(), imageHeaders(t, 2))
	if err != nil {
		t.Fatal(err)
	}
	images := res.Report.Images
	if len(images) != 2 || images[0].OriginalName != "site.jpg" {
		t.Fatalf("images = %+v", images)
	}
	for _, img := range images {
		if _, err := os.Stat(img.Path); err != nil {
			t.Errorf("image not stored at %s: %v", img.Path, err)
		}
	}

	if _, err := f.svc.CreateReport(ctx, f.owner, pothole(), imageHeaders(t, 6)); apperror.MapErrorToStatus(err) != http.StatusBadRequest {
		t.Errorf("six images err = %v", err)
	}

	if err := f.svc.DeleteReport(ctx, f.stranger, res.Report.ID); apperror.MapErrorToStatus(err) != http.StatusForbidden {
		t.Errorf("stranger delete err = %v", err)
	}
	if err := f.svc.DeleteReport(ctx, f.owner, res.Report.ID); err != nil {
		t.Fatal(err)
	}
	for _, img := range images {
		if _, err := os.Stat(img.Path); !os.IsNotExist(err) {
			t.Errorf("image %s survived delete", img.Path)
		}
	}
	if _, err := f.svc.GetReport(ctx, f.owner, res.Report.ID); apperror.MapErrorToStatus(err) != http.StatusNotFound {
		t.Errorf("get after delete err = %v", err)
	}
}

func TestGetReportAccess(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	res, _ := f.svc.CreateReport(ctx, f.owner, pothole(), nil)

	tests := []struct {
		name      string
		principal access.Principal
		id        uuid.UUID
		want      int
	}{
		{"owner", f.owner, res.Report.ID, http.StatusOK},
		{"moderator", f.moderator, res.Report.ID, http.StatusOK},
		{"stranger", f.stranger, res.Report.ID, http.StatusForbidden},
		{"missing before forbidden", f.stranger, uuid.New(), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.GetReport(ctx, tt.principal, tt.id)
			got := http.StatusOK
			if err != nil {
				got = apperror.MapErrorToStatus(err)
			}
			if got != tt.want {
				t.Errorf("status = %d, want %d (%v)", got, tt.want, err)
			}
		})
	}
}

func TestReportLengthCheckedAfterMarkupStripped(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	res, err := f.svc.CreateReport(ctx, f.owner, pothole(), nil)
	if err != nil {
		t.Fatal(err)
	}
	id := res.Report.ID

	tests := []struct {
		name  string
		run   func() error
		field string
	}{
		{"create title", func() error {
			req := pothole()
			req.Title = "<b>x</b>"
			_, err := f.svc.CreateReport(ctx, f.owner, req, nil)
			return err
		}, "title"},
		{"create description", func() error {
			req := pothole()
			req.Description = "<script>alert('flooded')</script>ok"
			_, err := f.svc.CreateReport(ctx, f.owner, req, nil)
			return err
		}, "description"},
		{"update title", func() error {
			_, err := f.svc.UpdateReport(ctx, f.owner, id, dto.UpdateReportRequest{Title: strPtr("<i>  ab  </i>")})
			return err
		}, "title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || appErr.Code != http.StatusBadRequest {
				t.Fatalf("err = %v, want 400", err)
			}
			if len(appErr.Fields) != 1 || appErr.Fields[0].Field != tt.field {
				t.Errorf("fields = %+v, want %s", appErr.Fields, tt.field)
			}
		})
	}

	got, err := f.svc.GetReport(ctx, f.owner, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Report.Title != "Pothole" {
		t.Errorf("title changed to %q", got.Report.Title)
	}
}

func TestUpdateReportStripsPrivilegedFields(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	res, _ := f.svc.CreateReport(ctx, f.owner, pothole(), nil)
	id := res.Report.ID

	_, err := f.svc.UpdateReport(ctx, f.stranger, id, dto.UpdateReportRequest{Status: strPtr(entity.ReportStatusResolved)})
	if apperror.MapErrorToStatus(err) != http.StatusForbidden {
		t.Fatalf("stranger update err = %v", err)
	}

	upd, err := f.svc.UpdateReport(ctx, f.owner, id, dto.UpdateReportRequest{
		Title:           strPtr("Pothole near <b>bus stand</b>"),
		Status:          strPtr(entity.ReportStatusResolved),
		ResolutionNotes: strPtr("done"),
		AssignedTo:      strPtr(f.moderator.ID.String()),
	})
	if err != nil {
		t.Fatal(err)
	}
	r := upd.Report
	if r.Status != entity.ReportStatusPending || r.ResolutionNotes != "" || r.AssignedTo != nil || r.ResolvedAt != nil {
		t.Errorf("privileged fields leaked through: %+v", r)
	}
	if r.Title != "Pothole near bus stand" {
		t.Errorf("title = %q", r.Title)
	}
}

func TestUpdateReportResolvedStampsOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	res, _ := f.svc.CreateReport(ctx, f.owner, pothole(), nil)
	id := res.Report.ID

	svc := f.svc.(*reportService)
	first := time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }

	upd, err := svc.UpdateReport(ctx, f.moderator, id, dto.UpdateReportRequest{
		Status:     strPtr(entity.ReportStatusResolved),
		AssignedTo: strPtr(f.moderator.ID.String()),
	})
	if err != nil {
		t.Fatal(err)
	}
	if upd.Report.ResolvedAt == nil || !upd.Report.ResolvedAt.Equal(first) {
		t.Fatalf("resolvedAt = %v", upd.Report.ResolvedAt)
	}
	if upd.Report.AssignedTo == nil || upd.Report.AssignedTo.ID != f.moderator.ID {
		t.Errorf("assignedTo = %+v", upd.Report.AssignedTo)
	}

	svc.now = func() time.Time { return first.Add(48 * time.Hour) }
	upd, err = svc.UpdateReport(ctx, f.admin, id, dto.UpdateReportRequest{
		Status:          strPtr(entity.ReportStatusResolved),
		ResolutionNotes: strPtr("Road patched"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !upd.Report.ResolvedAt.Equal(first) || upd.Report.ResolutionNotes != "Road patched" {
		t.Errorf("second resolve = %+v", upd.Report)
	}

	_, err = svc.UpdateReport(ctx, f.admin, id, dto.UpdateReportRequest{AssignedTo: strPtr(uuid.NewString())})
	if apperror.MapErrorToStatus(err) != http.StatusBadRequest {
		t.Errorf("unknown assignee err = %v", err)
	}
}

func TestGetReportsScoping(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		f.svc.CreateReport(ctx, f.owner, pothole(), nil)
	}
	health := pothole()
	health.Category = entity.ReportCategoryHealth
	f.svc.CreateReport(ctx, f.stranger, health, nil)

	res, err := f.svc.GetReports(ctx, f.owner, query.ReportFilter{Category: entity.ReportCategoryHealth}, query.NewPage(1, 10, 10))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Reports) != 0 || res.Pagination.Total != 0 {
		t.Errorf("owner saw foreign report: %+v", res.Pagination)
	}

	res, _ = f.svc.GetReports(ctx, f.owner, query.ReportFilter{}, query.NewPage(2, 2, 10))
	if len(res.Reports) != 1 || res.Pagination.Total != 3 || res.Pagination.Pages != 2 || res.Pagination.Current != 2 {
		t.Errorf("owner page 2 = %d rows %+v", len(res.Reports), res.Pagination)
	}

	res, _ = f.svc.GetReports(ctx, f.admin, query.ReportFilter{}, query.NewPage(1, 10, 10))
	if res.Pagination.Total != 4 {
		t.Errorf("admin total = %d", res.Pagination.Total)
	}

	if _, err := f.svc.GetReports(ctx, f.admin, query.ReportFilter{Status: "closed"}, query.NewPage(1, 10, 10)); apperror.MapErrorToStatus(err) != http.StatusBadRequest {
		t.Errorf("bad status filter err = %v", err)
	}
}

func TestGetStatsEmpty(t *testing.T) {
	f := setup(t)

	stats, err := f.svc.GetStats(context.Background(), f.admin)
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := json.Marshal(stats)
	want := `{"overall":{"total":0,"pending":0,"inProgress":0,"resolved":0},"byCategory":[],"byDistrict":[]}`
	if string(raw) != want {
		t.Errorf("stats = %s\nwant    %s", raw, want)
	}

	if _, err := f.svc.GetStats(context.Background(), f.owner); apperror.MapErrorToStatus(err) != http.StatusForbidden {
		t.Errorf("plain user stats err = %v", err)
	}
}

func TestGetStatsAggregates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	seed := []struct {
		category, district, status string
	}{
		{entity.ReportCategoryInfrastructure, "Ludhiana", entity.ReportStatusPending},
		{entity.ReportCategoryInfrastructure, "Ludhiana", entity.ReportStatusResolved},
		{entity.ReportCategoryInfrastructure, "Amritsar", entity.ReportStatusInProgress},
		{entity.ReportCategoryHealth, "Ludhiana", entity.ReportStatusRejected},
		{entity.ReportCategoryHealth, "", entity.ReportStatusPending},
	}
	for _, s := range seed {
		req := pothole()
		req.Category = s.category
		req.Location.District = s.district
		res, err := f.svc.CreateReport(ctx, f.owner, req, nil)
		if err != nil {
			t.Fatal(err)
		}
		if s.status != entity.ReportStatusPending {
			if _, err := f.svc.UpdateReport(ctx, f.admin, res.Report.ID, dto.UpdateReportRequest{Status: strPtr(s.status)}); err != nil {
				t.Fatal(err)
			}
		}
	}

	stats, err := f.svc.GetStats(ctx, f.moderator)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Overall != (dto.StatusCounts{Total: 5, Pending: 2, InProgress: 1, Resolved: 1}) {
		t.Errorf("overall = %+v", stats.Overall)
	}

	wantCategories := []dto.CategoryStats{
		{ID: entity.ReportCategoryInfrastructure, Count: 3, Pending: 1, InProgress: 1, Resolved: 1},
		{ID: entity.ReportCategoryHealth, Count: 2, Pending: 1},
	}
	if len(stats.ByCategory) != len(wantCategories) {
		t.Fatalf("byCategory = %+v", stats.ByCategory)
	}
	for i, want := range wantCategories {
		if stats.ByCategory[i] != want {
			t.Errorf("byCategory[%d] = %+v, want %+v", i, stats.ByCategory[i], want)
		}
	}

	wantDistricts := []dto.DistrictStats{{ID: "Ludhiana", Count: 3}, {ID: "Amritsar", Count: 1}}
	if len(stats.ByDistrict) != 2 || stats.ByDistrict[0] != wantDistricts[0] || stats.ByDistrict[1] != wantDistricts[1] {
		t.Errorf("byDistrict = %+v", stats.ByDistrict)
	}
}
