package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

type localStorage struct {
	root string
}

// NewLocalStorage writes files under root/<folder>/. Paths returned by Save
// are slash-separated and relative to the parent of root, e.g.
// "uploads/reports/report-1700000000000-42.png".
func NewLocalStorage(root string) (FileStorage, error) {
	if root == "" {
		root = "uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &localStorage{root: filepath.Clean(root)}, nil
}

func (s *localStorage) Save(ctx context.Context, fh *multipart.FileHeader, folder string) (*FileDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.root, filepath.Base(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	filename := GenerateFilename(folder, fh.Filename)
	full := filepath.Join(dir, filename)

	dst, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	size, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(full)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &FileDescriptor{
		Filename:     filename,
		OriginalName: fh.Filename,
		Path:         filepath.ToSlash(full),
		Size:         size,
		MimeType:     DetectMimeType(fh),
	}, nil
}

func (s *localStorage) Remove(_ context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// resolve maps a stored path back onto disk and refuses anything outside root.
func (s *localStorage) resolve(path string) (string, error) {
	full := filepath.Clean(filepath.FromSlash(path))
	if !filepath.IsAbs(full) && !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		full = filepath.Join(s.root, full)
	}

	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %q is outside the upload directory", path)
	}
	return full, nil
}
