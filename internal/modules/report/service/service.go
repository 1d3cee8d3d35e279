package report

import (
	"context"
	"errors"
	"mime/multipart"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/access"
	"github.com/punjabready/portal-api/internal/entity"
	"github.com/punjabready/portal-api/internal/modules/report/dto"
	"github.com/punjabready/portal-api/internal/modules/report/repository"
	userRepo "github.com/punjabready/portal-api/internal/modules/user/repository"
	"github.com/punjabready/portal-api/internal/query"
	"github.com/punjabready/portal-api/pkg/apperror"
	"github.com/punjabready/portal-api/pkg/logging"
	"github.com/punjabready/portal-api/pkg/metrics"
	"github.com/punjabready/portal-api/pkg/sanitize"
	"github.com/punjabready/portal-api/pkg/storage"
	"gorm.io/gorm"
)

const (
	msgReportNotFound = "Report not found"
	topDistricts      = 10
	imageFolder       = "reports"

	minTitleLen       = 5
	minDescriptionLen = 10
)

type ReportService interface {
	GetReports(ctx context.Context, principal access.Principal, filter query.ReportFilter, page query.Page) (*dto.ReportListResponse, error)
	GetReport(ctx context.Context, principal access.Principal, id uuid.UUID) (*dto.ReportEnvelope, error)
	CreateReport(ctx context.Context, principal access.Principal, req dto.CreateReportRequest, images []*multipart.FileHeader) (*dto.ReportEnvelope, error)
	UpdateReport(ctx context.Context, principal access.Principal, id uuid.UUID, req dto.UpdateReportRequest) (*dto.ReportEnvelope, error)
	DeleteReport(ctx context.Context, principal access.Principal, id uuid.UUID) error
	GetStats(ctx context.Context, principal access.Principal) (*dto.ReportStats, error)
}

type reportService struct {
	repo     repository.ReportRepository
	userRepo userRepo.UserRepository
	files    storage.FileStorage
	now      func() time.Time
}

func NewReportService(repo repository.ReportRepository, userRepo userRepo.UserRepository, files storage.FileStorage) ReportService {
	return &reportService{
		repo:     repo,
		userRepo: userRepo,
		files:    files,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *reportService) GetReports(ctx context.Context, principal access.Principal, filter query.ReportFilter, page query.Page) (*dto.ReportListResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	reports, total, err := s.repo.FindAll(ctx, filter, principal, page)
	if err != nil {
		return nil, err
	}

	res := &dto.ReportListResponse{
		Reports:    make([]dto.ReportResponse, 0, len(reports)),
		Pagination: query.NewResult(page, total).Pagination(),
	}
	for _, r := range reports {
		res.Reports = append(res.Reports, dto.NewReportResponse(r))
	}
	return res, nil
}

func (s *reportService) GetReport(ctx context.Context, principal access.Principal, id uuid.UUID) (*dto.ReportEnvelope, error) {
	report, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanAccessReport(principal, report.ReportedByID, access.ActionRead).Allowed() {
		return nil, apperror.Forbidden("Not authorized to access this report")
	}
	return &dto.ReportEnvelope{Report: dto.NewReportResponse(report)}, nil
}

func (s *reportService) CreateReport(ctx context.Context, principal access.Principal, req dto.CreateReportRequest, images []*multipart.FileHeader) (*dto.ReportEnvelope, error) {
	if err := storage.ReportImages.Check(images); err != nil {
		return nil, err
	}

	title, description := sanitize.Text(req.Title), sanitize.Text(req.Description)
	if err := checkStoredLength(&title, &description); err != nil {
		return nil, err
	}

	location := req.Location.Entity()
	location.Address = sanitize.Text(location.Address)

	report := &entity.Report{
		Title:        title,
		Description:  description,
		Category:     req.Category,
		Priority:     req.Priority,
		Status:       entity.ReportStatusPending,
		Location:     location,
		ReportedByID: principal.ID,
	}

	saved := make([]string, 0, len(images))
	for i, fh := range images {
		desc, err := s.files.Save(ctx, fh, imageFolder)
		metrics.RecordFileOperation("upload", err)
		if err != nil {
			s.removeAll(ctx, saved)
			return nil, err
		}
		saved = append(saved, desc.Path)
		report.Images = append(report.Images, entity.ReportImage{
			Filename:     desc.Filename,
			OriginalName: desc.OriginalName,
			Path:         desc.Path,
			Position:     i,
		})
	}

	if err := s.repo.Create(ctx, report); err != nil {
		s.removeAll(ctx, saved)
		return nil, err
	}

	logging.Info().
		Str("report_id", report.ID.String()).
		Str("user_id", principal.ID.String()).
		Int("images", len(report.Images)).
		Msg("report created")

	return s.envelope(ctx, report.ID)
}

func (s *reportService) UpdateReport(ctx context.Context, principal access.Principal, id uuid.UUID, req dto.UpdateReportRequest) (*dto.ReportEnvelope, error) {
	report, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanAccessReport(principal, report.ReportedByID, access.ActionUpdate).Allowed() {
		return nil, apperror.Forbidden("Not authorized to update this report")
	}

	update := req.Sanitize(access.IsReportPrivileged(principal.Role))
	title, description := sanitize.TextPtr(update.Title), sanitize.TextPtr(update.Description)
	if err := checkStoredLength(title, description); err != nil {
		return nil, err
	}

	if title != nil {
		report.Title = *title
	}
	if description != nil {
		report.Description = *description
	}
	if update.Category != nil {
		report.Category = *update.Category
	}
	if update.Priority != nil {
		report.Priority = *update.Priority
	}
	if update.Location != nil {
		report.Location = update.Location.Entity()
		report.Location.Address = sanitize.Text(report.Location.Address)
	}
	if update.ResolutionNotes != nil {
		report.ResolutionNotes = sanitize.Text(*update.ResolutionNotes)
	}
	if update.AssignedTo != nil {
		if err := s.assign(ctx, report, *update.AssignedTo); err != nil {
			return nil, err
		}
	}
	if update.Status != nil {
		report.ApplyStatus(*update.Status, s.now())
	}

	if err := s.repo.Update(ctx, report); err != nil {
		return nil, apperror.FromRepo(err, msgReportNotFound)
	}

	return s.envelope(ctx, report.ID)
}

func (s *reportService) DeleteReport(ctx context.Context, principal access.Principal, id uuid.UUID) error {
	report, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanAccessReport(principal, report.ReportedByID, access.ActionDelete).Allowed() {
		return apperror.Forbidden("Not authorized to delete this report")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return apperror.FromRepo(err, msgReportNotFound)
	}

	paths := make([]string, 0, len(report.Images))
	for _, img := range report.Images {
		paths = append(paths, img.Path)
	}
	s.removeAll(ctx, paths)

	logging.Info().
		Str("report_id", id.String()).
		Str("user_id", principal.ID.String()).
		Msg("report deleted")
	return nil
}

func (s *reportService) GetStats(ctx context.Context, principal access.Principal) (*dto.ReportStats, error) {
	if !access.CanViewReportStats(principal).Allowed() {
		return nil, apperror.Forbidden("Not authorized to view report statistics")
	}

	overall, err := s.repo.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.repo.CategoryCounts(ctx)
	if err != nil {
		return nil, err
	}
	districts, err := s.repo.TopDistricts(ctx, topDistricts)
	if err != nil {
		return nil, err
	}

	stats := &dto.ReportStats{
		Overall: dto.StatusCounts{
			Total:      overall.Total,
			Pending:    overall.Pending,
			InProgress: overall.InProgress,
			Resolved:   overall.Resolved,
		},
		ByCategory: make([]dto.CategoryStats, 0, len(categories)),
		ByDistrict: make([]dto.DistrictStats, 0, len(districts)),
	}
	for _, c := range categories {
		stats.ByCategory = append(stats.ByCategory, dto.CategoryStats{
			ID:         c.ID,
			Count:      c.Count,
			Pending:    c.Pending,
			InProgress: c.InProgress,
			Resolved:   c.Resolved,
		})
	}
	for _, d := range districts {
		stats.ByDistrict = append(stats.ByDistrict, dto.DistrictStats{ID: d.ID, Count: d.Count})
	}
	return stats, nil
}

func (s *reportService) assign(ctx context.Context, report *entity.Report, raw string) error {
	if raw == "" {
		report.AssignedToID = nil
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return apperror.Validation("Validation failed", apperror.FieldError{Field: "assignedTo", Message: "assignedTo must be a valid user id"})
	}
	if _, err := s.userRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.BadRequest("Assigned user not found")
		}
		return err
	}
	report.AssignedToID = &id
	return nil
}

// checkStoredLength repeats the minimum length rules on the text left after
// markup is stripped, since that is what gets stored.
func checkStoredLength(title, description *string) error {
	var fields []apperror.FieldError
	if title != nil && utf8.RuneCountInString(*title) < minTitleLen {
		fields = append(fields, apperror.FieldError{Field: "title", Message: "title must be at least 5 characters"})
	}
	if description != nil && utf8.RuneCountInString(*description) < minDescriptionLen {
		fields = append(fields, apperror.FieldError{Field: "description", Message: "description must be at least 10 characters"})
	}
	if len(fields) > 0 {
		return apperror.Validation("Validation failed", fields...)
	}
	return nil
}

func (s *reportService) find(ctx context.Context, id uuid.UUID) (*entity.Report, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromRepo(err, msgReportNotFound)
	}
	return report, nil
}

func (s *reportService) envelope(ctx context.Context, id uuid.UUID) (*dto.ReportEnvelope, error) {
	report, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.ReportEnvelope{Report: dto.NewReportResponse(report)}, nil
}

// removeAll deletes stored files best-effort.
func (s *reportService) removeAll(ctx context.Context, paths []string) {
	if s.files == nil {
		return
	}
	for _, p := range paths {
		err := s.files.Remove(ctx, p)
		if errors.Is(err, storage.ErrNotFound) {
			err = nil
		}
		metrics.RecordFileOperation("delete", err)
		if err != nil {
			logging.Warn().Err(err).Str("path", p).Msg("failed to remove report image")
		}
	}
}
