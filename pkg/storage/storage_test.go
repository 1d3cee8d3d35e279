package storage

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

// fileHeader builds a real *multipart.FileHeader by parsing a request.
func fileHeader(t *testing.T, field, name, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename="` + name + `"`}
	h["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	mw.Close()

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatal(err)
	}
	return req.MultipartForm.File[field][0]
}

func TestLocalStorageSaveAndRemove(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(root)
	if err != nil {
		t.Fatal(err)
	}

	fh := fileHeader(t, "images", "Flood Photo.PNG", "image/png", []byte("png-bytes"))
	desc, err := s.Save(context.Background(), fh, "reports")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if !regexp.MustCompile(`^report-\d+-\d+\.png$`).MatchString(desc.Filename) {
		t.Errorf("filename = %q", desc.Filename)
	}
	if desc.OriginalName != "Flood Photo.PNG" || desc.MimeType != "image/png" || desc.Size != 9 {
		t.Errorf("descriptor = %+v", desc)
	}

	onDisk := filepath.Join(root, "reports", desc.Filename)
	if _, err := os.Stat(onDisk); err != nil {
		t.Fatalf("file not written: %v", err)
	}

	if err := s.Remove(context.Background(), desc.Path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(onDisk); !os.IsNotExist(err) {
		t.Error("file still present after Remove")
	}

	if err := s.Remove(context.Background(), desc.Path); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove = %v, want ErrNotFound", err)
	}
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{"../secret.txt", "/etc/passwd", "reports/../../x"} {
		if err := s.Remove(context.Background(), p); err == nil || errors.Is(err, ErrNotFound) {
			t.Errorf("Remove(%q) = %v, want rejection", p, err)
		}
	}
}

func TestExtractPublicID(t *testing.T) {
	tests := []struct {
		url, id, kind string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712/portal/reports/report-1-2.png", "portal/reports/report-1-2", "image"},
		{"https://res.cloudinary.com/demo/video/upload/portal/modules/module-3.mp4", "portal/modules/module-3", "video"},
		{"https://res.cloudinary.com/demo/raw/upload/v9/portal/modules/module-4.pdf", "portal/modules/module-4.pdf", "raw"},
		{"https://example.com/no-upload-segment.png", "", ""},
	}

	for _, tt := range tests {
		id, kind := extractPublicID(tt.url)
		if id != tt.id || kind != tt.kind {
			t.Errorf("extractPublicID(%q) = (%q, %q), want (%q, %q)", tt.url, id, kind, tt.id, tt.kind)
		}
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	if _, err := New(Options{Driver: "s3"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}
