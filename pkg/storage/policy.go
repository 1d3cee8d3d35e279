package storage

import (
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/punjabready/portal-api/pkg/apperror"
)

// MB is one mebibyte.
const MB = 1 << 20

// Policy bounds what a multipart field may carry.
type Policy struct {
	Field    string
	MaxFiles int
	MaxSize  int64
	Accept   func(mime string) bool
	// TypeError is returned for a rejected mime type; %s receives the mime.
	TypeError string
}

var (
	// ReportImages accepts up to five images of at most 5MB each.
	ReportImages = Policy{
		Field:     "images",
		MaxFiles:  5,
		MaxSize:   5 * MB,
		Accept:    IsImage,
		TypeError: "Only image files are allowed for reports",
	}

	// ModuleFile accepts a single pdf or video of at most 100MB.
	ModuleFile = Policy{
		Field:     "file",
		MaxFiles:  1,
		MaxSize:   100 * MB,
		Accept:    func(m string) bool { return ModuleKind(m) != "" },
		TypeError: "Invalid file type. Only PDF and video files are allowed. Received: %s",
	}

	// SingleImage and MultipleImages back the generic upload endpoints.
	SingleImage = Policy{
		Field:     "file",
		MaxFiles:  1,
		MaxSize:   5 * MB,
		Accept:    IsImage,
		TypeError: "Only image files are allowed",
	}
	MultipleImages = Policy{
		Field:     "files",
		MaxFiles:  10,
		MaxSize:   5 * MB,
		Accept:    IsImage,
		TypeError: "Only image files are allowed",
	}
)

var moduleMimes = map[string]string{
	"application/pdf": "pdf",
	"video/mp4":       "video",
	"video/mpeg":      "video",
	"video/quicktime": "video",
	"video/webm":      "video",
	"video/x-msvideo": "video",
	"video/avi":       "video",
	"video/mkv":       "video",
}

// ModuleKind maps a mime type onto the module type it can back ("pdf" or
// "video"), or "" when the type is not allowed.
func ModuleKind(mime string) string {
	return moduleMimes[strings.ToLower(mime)]
}

func IsImage(mime string) bool {
	return strings.HasPrefix(strings.ToLower(mime), "image/")
}

// Check validates the files posted under p.Field.
func (p Policy) Check(files []*multipart.FileHeader) error {
	if p.MaxFiles > 0 && len(files) > p.MaxFiles {
		return apperror.BadRequest("Too many files")
	}
	for _, fh := range files {
		if p.MaxSize > 0 && fh.Size > p.MaxSize {
			return apperror.BadRequest("File too large")
		}
		if p.Accept != nil {
			mime := DetectMimeType(fh)
			if !p.Accept(mime) {
				msg := p.TypeError
				if strings.Contains(msg, "%s") {
					msg = fmt.Sprintf(msg, mime)
				}
				return apperror.BadRequest(msg)
			}
		}
	}
	return nil
}

// Files returns the checked files of p.Field from form, which may be nil.
func (p Policy) Files(form *multipart.Form) ([]*multipart.FileHeader, error) {
	if form == nil {
		return nil, nil
	}
	files := form.File[p.Field]
	if err := p.Check(files); err != nil {
		return nil, err
	}
	return files, nil
}
