package storage

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound is returned by Remove implementations that can tell a
// missing file apart from a failed delete. Callers treat it as success.
var ErrNotFound = errors.New("file not found")

// FileDescriptor describes a stored file.
type FileDescriptor struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mimetype"`
}

// FileStorage saves uploaded files and removes them again.
type FileStorage interface {
	// Save stores the upload under folder (e.g. "reports", "modules").
	Save(ctx context.Context, fh *multipart.FileHeader, folder string) (*FileDescriptor, error)
	// Remove deletes a file previously returned by Save, addressed by its Path.
	Remove(ctx context.Context, path string) error
}

// Options selects and configures a FileStorage.
type Options struct {
	Driver   string // "local" or "cloudinary"
	LocalDir string

	CloudinaryURL    string
	CloudinaryFolder string
}

// New builds the storage named by opts.Driver.
func New(opts Options) (FileStorage, error) {
	switch strings.ToLower(opts.Driver) {
	case "", "local":
		return NewLocalStorage(opts.LocalDir)
	case "cloudinary":
		return NewCloudinaryStorage(opts.CloudinaryURL, opts.CloudinaryFolder)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}

// GenerateFilename builds "<prefix>-<unix ms>-<random>.<ext>".
func GenerateFilename(folder, originalName string) string {
	n, err := rand.Int(rand.Reader, big.NewInt(1e9))
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	}
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%s-%d-%d%s", prefixFor(folder), time.Now().UnixMilli(), suffix, ext)
}

func prefixFor(folder string) string {
	switch folder {
	case "reports":
		return "report"
	case "modules":
		return "module"
	case "":
		return "file"
	default:
		return strings.TrimSuffix(folder, "s")
	}
}

// DetectMimeType prefers the part header and falls back to the extension.
func DetectMimeType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	switch strings.ToLower(filepath.Ext(fh.Filename)) {
	case ".pdf":
		return "application/pdf"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	return "application/octet-stream"
}
