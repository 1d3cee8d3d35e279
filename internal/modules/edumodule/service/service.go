package edumodule

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/access"
	"github.com/punjabready/portal-api/internal/entity"
	"github.com/punjabready/portal-api/internal/modules/edumodule/dto"
	"github.com/punjabready/portal-api/internal/modules/edumodule/repository"
	search "github.com/punjabready/portal-api/internal/modules/search/service"
	"github.com/punjabready/portal-api/internal/query"
	"github.com/punjabready/portal-api/pkg/apperror"
	"github.com/punjabready/portal-api/pkg/logging"
	"github.com/punjabready/portal-api/pkg/metrics"
	"github.com/punjabready/portal-api/pkg/sanitize"
	"github.com/punjabready/portal-api/pkg/storage"
	"github.com/punjabready/portal-api/pkg/validator"
)

const (
	msgModuleNotFound = "Module not found"
	fileFolder        = "modules"
)

type ModuleService interface {
	GetModules(ctx context.Context, filter query.ModuleFilter, page query.Page) (*dto.ModulePage, error)
	SearchModules(ctx context.Context, q string, page query.Page) (*dto.ModulePage, error)
	// GetModule counts a view on every successful fetch.
	GetModule(ctx context.Context, id uuid.UUID) (*dto.ModuleEnvelope, error)
	CreateModule(ctx context.Context, principal access.Principal, req dto.CreateModuleRequest, file *multipart.FileHeader) (*dto.ModuleEnvelope, error)
	UpdateModule(ctx context.Context, principal access.Principal, id uuid.UUID, req dto.UpdateModuleRequest, file *multipart.FileHeader) (*dto.ModuleEnvelope, error)
	DeleteModule(ctx context.Context, principal access.Principal, id uuid.UUID) error
}

type moduleService struct {
	repo  repository.ModuleRepository
	files storage.FileStorage
	index search.ModuleIndex
}

// NewModuleService wires the module service. index may be nil, in which case
// search runs against the database only.
func NewModuleService(repo repository.ModuleRepository, files storage.FileStorage, index search.ModuleIndex) ModuleService {
	return &moduleService{repo: repo, files: files, index: index}
}

func (s *moduleService) GetModules(ctx context.Context, filter query.ModuleFilter, page query.Page) (*dto.ModulePage, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	rows, total, err := s.repo.FindAll(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return modulePage(rows, page, total), nil
}

func (s *moduleService) SearchModules(ctx context.Context, q string, page query.Page) (*dto.ModulePage, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperror.BadRequest("Search query is required")
	}

	if s.index != nil {
		ids, total, err := s.index.SearchModules(ctx, q, page.Offset(), page.Limit)
		if err == nil {
			rows, err := s.repo.FindByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			return modulePage(rows, page, total), nil
		}
		logging.Warn().Err(err).Str("q", q).Msg("module search index unavailable, falling back to database")
	}

	rows, total, err := s.repo.FindAll(ctx, query.ModuleFilter{Search: q}, page)
	if err != nil {
		return nil, err
	}
	return modulePage(rows, page, total), nil
}

func (s *moduleService) GetModule(ctx context.Context, id uuid.UUID) (*dto.ModuleEnvelope, error) {
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		return nil, apperror.FromRepo(err, msgModuleNotFound)
	}
	metrics.ModuleViewsTotal.Inc()

	m, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.ModuleEnvelope{Module: dto.NewModuleResponse(m)}, nil
}

func (s *moduleService) CreateModule(ctx context.Context, principal access.Principal, req dto.CreateModuleRequest, file *multipart.FileHeader) (*dto.ModuleEnvelope, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || strings.TrimSpace(req.Category) == "" || strings.TrimSpace(req.Type) == "" {
		return nil, apperror.BadRequest("Title, category, and type are required")
	}
	if err := checkEnums(req.Category, req.Type); err != nil {
		return nil, err
	}

	m := &entity.Module{
		Title:        sanitize.Text(title),
		Description:  sanitize.Text(req.Description),
		Category:     req.Category,
		Type:         req.Type,
		YoutubeURL:   strings.TrimSpace(req.YoutubeURL),
		UploadedByID: principal.ID,
		Status:       entity.ModuleStatusActive,
	}
	if req.Status != "" {
		m.Status = req.Status
	}
	if m.Type != entity.ModuleTypeYouTube {
		m.YoutubeURL = ""
	}

	if err := checkContent(m.Type, m.YoutubeURL, file, false); err != nil {
		return nil, err
	}

	if file != nil {
		f, err := s.save(ctx, file)
		if err != nil {
			return nil, err
		}
		m.File = f
	}

	if err := s.repo.Create(ctx, m); err != nil {
		s.remove(ctx, m.File.Path)
		return nil, err
	}
	s.reindex(m)

	logging.Info().
		Str("module_id", m.ID.String()).
		Str("user_id", principal.ID.String()).
		Str("type", m.Type).
		Msg("module uploaded")

	return s.envelope(ctx, m.ID)
}

func (s *moduleService) UpdateModule(ctx context.Context, principal access.Principal, id uuid.UUID, req dto.UpdateModuleRequest, file *multipart.FileHeader) (*dto.ModuleEnvelope, error) {
	m, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanAccessModule(principal, m.UploadedByID, access.ActionUpdate).Allowed() {
		return nil, apperror.Forbidden("Not authorized to update this module")
	}

	if req.Title != nil {
		m.Title = sanitize.Text(strings.TrimSpace(*req.Title))
	}
	if req.Description != nil {
		m.Description = sanitize.Text(*req.Description)
	}
	if req.Category != nil {
		m.Category = *req.Category
	}
	if req.Type != nil {
		m.Type = *req.Type
	}
	if req.YoutubeURL != nil {
		m.YoutubeURL = strings.TrimSpace(*req.YoutubeURL)
	}
	if req.Status != nil {
		m.Status = *req.Status
	}
	if m.Title == "" {
		return nil, apperror.BadRequest("Title, category, and type are required")
	}
	if err := checkEnums(m.Category, m.Type); err != nil {
		return nil, err
	}

	old := m.File
	if m.Type == entity.ModuleTypeYouTube {
		m.File = entity.ModuleFile{}
	} else {
		m.YoutubeURL = ""
	}
	if err := checkContent(m.Type, m.YoutubeURL, file, !m.File.IsZero()); err != nil {
		return nil, err
	}

	// A kept file must still match the module type.
	if file == nil && !m.File.IsZero() && storage.ModuleKind(m.File.MimeType) != m.Type {
		return nil, apperror.BadRequest(fmt.Sprintf("File is required for %s modules", m.Type))
	}

	var saved string
	if file != nil {
		f, err := s.save(ctx, file)
		if err != nil {
			return nil, err
		}
		m.File = f
		saved = f.Path
	}

	// The replaced file goes before the record is written.
	if old.Path != "" && old.Path != m.File.Path {
		s.remove(ctx, old.Path)
	}

	if err := s.repo.Update(ctx, m); err != nil {
		s.remove(ctx, saved)
		return nil, apperror.FromRepo(err, msgModuleNotFound)
	}
	s.reindex(m)

	return s.envelope(ctx, m.ID)
}

func (s *moduleService) DeleteModule(ctx context.Context, principal access.Principal, id uuid.UUID) error {
	m, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanAccessModule(principal, m.UploadedByID, access.ActionDelete).Allowed() {
		return apperror.Forbidden("Not authorized to delete this module")
	}

	s.remove(ctx, m.File.Path)

	if err := s.repo.Delete(ctx, id); err != nil {
		return apperror.FromRepo(err, msgModuleNotFound)
	}

	if s.index != nil {
		if err := s.index.DeleteModule(id); err != nil {
			logging.Warn().Err(err).Str("module_id", id.String()).Msg("failed to remove module from search index")
		}
	}

	logging.Info().
		Str("module_id", id.String()).
		Str("user_id", principal.ID.String()).
		Msg("module deleted")
	return nil
}

func checkEnums(category, kind string) error {
	var fields []apperror.FieldError
	if !entity.Contains(entity.ModuleCategories, category) {
		fields = append(fields, apperror.FieldError{
			Field:   "category",
			Message: "category must be one of: " + strings.Join(entity.ModuleCategories, ", "),
		})
	}
	if !entity.Contains(entity.ModuleTypes, kind) {
		fields = append(fields, apperror.FieldError{
			Field:   "type",
			Message: "type must be one of: " + strings.Join(entity.ModuleTypes, ", "),
		})
	}
	if len(fields) > 0 {
		return apperror.Validation("Validation failed", fields...)
	}
	return nil
}

// checkContent enforces that youtube modules carry a valid link and no file,
// and that pdf and video modules carry a file of the matching kind.
func checkContent(kind, youtubeURL string, file *multipart.FileHeader, hasFile bool) error {
	if kind == entity.ModuleTypeYouTube {
		if youtubeURL == "" {
			return apperror.BadRequest("YouTube URL is required for YouTube modules")
		}
		if !validator.IsYouTubeURL(youtubeURL) {
			return apperror.BadRequest("Please provide a valid YouTube URL")
		}
		if file != nil {
			return apperror.BadRequest("YouTube modules cannot include a file")
		}
		return nil
	}

	if file == nil {
		if hasFile {
			return nil
		}
		return apperror.BadRequest(fmt.Sprintf("File is required for %s modules", kind))
	}
	if err := storage.ModuleFile.Check([]*multipart.FileHeader{file}); err != nil {
		return err
	}
	if got := storage.ModuleKind(storage.DetectMimeType(file)); got != kind {
		return apperror.BadRequest(fmt.Sprintf("File type %s does not match module type %s", got, kind))
	}
	return nil
}

func (s *moduleService) save(ctx context.Context, fh *multipart.FileHeader) (entity.ModuleFile, error) {
	desc, err := s.files.Save(ctx, fh, fileFolder)
	metrics.RecordFileOperation("upload", err)
	if err != nil {
		return entity.ModuleFile{}, err
	}
	return entity.ModuleFile{
		Filename:     desc.Filename,
		OriginalName: desc.OriginalName,
		Path:         desc.Path,
		Size:         desc.Size,
		MimeType:     desc.MimeType,
	}, nil
}

// remove deletes a stored file best-effort.
func (s *moduleService) remove(ctx context.Context, path string) {
	if path == "" || s.files == nil {
		return
	}
	err := s.files.Remove(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		err = nil
	}
	metrics.RecordFileOperation("delete", err)
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("failed to remove module file")
	}
}

func (s *moduleService) reindex(m *entity.Module) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexModule(m); err != nil {
		logging.Warn().Err(err).Str("module_id", m.ID.String()).Msg("failed to index module")
	}
}

func (s *moduleService) find(ctx context.Context, id uuid.UUID) (*entity.Module, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromRepo(err, msgModuleNotFound)
	}
	return m, nil
}

func (s *moduleService) envelope(ctx context.Context, id uuid.UUID) (*dto.ModuleEnvelope, error) {
	m, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.ModuleEnvelope{Module: dto.NewModuleResponse(m)}, nil
}

func modulePage(rows []*entity.Module, page query.Page, total int64) *dto.ModulePage {
	r := query.NewResult(page, total)
	res := &dto.ModulePage{
		Modules:     make([]dto.ModuleResponse, 0, len(rows)),
		TotalPages:  r.Pages,
		CurrentPage: r.Current,
		Total:       r.Total,
	}
	for _, m := range rows {
		res.Modules = append(res.Modules, dto.NewModuleResponse(m))
	}
	return res
}
