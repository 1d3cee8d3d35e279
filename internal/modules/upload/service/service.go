package upload

import (
	"context"
	"errors"
	"mime/multipart"
	"path"
	"strings"

	"github.com/punjabready/portal-api/internal/entity"
	"github.com/punjabready/portal-api/internal/modules/upload/dto"
	"github.com/punjabready/portal-api/pkg/apperror"
	"github.com/punjabready/portal-api/pkg/logging"
	"github.com/punjabready/portal-api/pkg/metrics"
	"github.com/punjabready/portal-api/pkg/storage"
)

// Folders that DELETE /upload/:filename may address.
const (
	FolderReports = "reports"
	FolderModules = "modules"
)

type UploadService interface {
	UploadSingle(ctx context.Context, uploaderID string, file *multipart.FileHeader) (*dto.FileEnvelope, error)
	UploadMultiple(ctx context.Context, uploaderID string, files []*multipart.FileHeader) (*dto.FilesEnvelope, error)
	Delete(ctx context.Context, folder, filename string) error
}

type uploadService struct {
	files storage.FileStorage
}

func NewUploadService(files storage.FileStorage) UploadService {
	return &uploadService{files: files}
}

func (s *uploadService) UploadSingle(ctx context.Context, uploaderID string, file *multipart.FileHeader) (*dto.FileEnvelope, error) {
	if file == nil {
		return nil, apperror.BadRequest("Please upload a file")
	}
	if err := storage.SingleImage.Check([]*multipart.FileHeader{file}); err != nil {
		return nil, err
	}

	desc, err := s.save(ctx, file)
	if err != nil {
		return nil, err
	}

	logging.Info().Str("user_id", uploaderID).Str("path", desc.Path).Msg("file uploaded")
	return &dto.FileEnvelope{File: desc}, nil
}

func (s *uploadService) UploadMultiple(ctx context.Context, uploaderID string, files []*multipart.FileHeader) (*dto.FilesEnvelope, error) {
	if len(files) == 0 {
		return nil, apperror.BadRequest("Please upload files")
	}
	if err := storage.MultipleImages.Check(files); err != nil {
		return nil, err
	}

	res := &dto.FilesEnvelope{Files: make([]*storage.FileDescriptor, 0, len(files))}
	for _, fh := range files {
		desc, err := s.save(ctx, fh)
		if err != nil {
			// Undo the part of the batch already stored.
			for _, done := range res.Files {
				s.files.Remove(ctx, done.Path)
			}
			return nil, err
		}
		res.Files = append(res.Files, desc)
	}

	logging.Info().Str("user_id", uploaderID).Int("files", len(res.Files)).Msg("files uploaded")
	return res, nil
}

func (s *uploadService) Delete(ctx context.Context, folder, filename string) error {
	if folder == "" {
		folder = FolderReports
	}
	if !entity.Contains([]string{FolderReports, FolderModules}, folder) {
		return apperror.BadRequest("Invalid file type")
	}
	if filename == "" || filename != path.Base(filename) || strings.HasPrefix(filename, ".") || strings.Contains(filename, `\`) {
		return apperror.BadRequest("Invalid filename")
	}

	err := s.files.Remove(ctx, path.Join(folder, filename))
	metrics.RecordFileOperation("delete", err)
	if errors.Is(err, storage.ErrNotFound) {
		return apperror.NotFound("File not found")
	}
	return err
}

func (s *uploadService) save(ctx context.Context, fh *multipart.FileHeader) (*storage.FileDescriptor, error) {
	desc, err := s.files.Save(ctx, fh, FolderReports)
	metrics.RecordFileOperation("upload", err)
	return desc, err
}
