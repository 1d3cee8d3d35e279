package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/punjabready/portal-api/internal/access"
	"github.com/punjabready/portal-api/internal/entity"
	"github.com/punjabready/portal-api/internal/middleware"
	"github.com/punjabready/portal-api/internal/modules/edumodule/repository"
	edumodule "github.com/punjabready/portal-api/internal/modules/edumodule/service"
	"github.com/punjabready/portal-api/pkg/database/dbtest"
	"github.com/punjabready/portal-api/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db := dbtest.Open(t, &entity.User{}, &entity.Module{})
	files, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	u := &entity.User{Name: "Trainer", Email: "trainer@punjab.gov.in", PasswordHash: "x", IsActive: true}
	if err := db.Create(u).Error; err != nil {
		t.Fatal(err)
	}
	p := access.Principal{ID: u.ID, Role: u.Role}

	h := NewModuleHandler(edumodule.NewModuleService(repository.NewModuleRepository(db), files, nil))
	r := gin.New()
	r.Use(func(c *gin.Context) {
		middleware.SetPrincipal(c, p)
		c.Next()
	})
	r.GET("/modules", h.GetModules)
	r.GET("/modules/search", h.SearchModules)
	r.GET("/modules/:id", h.GetModule)
	r.POST("/modules", h.CreateModule)
	r.PUT("/modules/:id", h.UpdateModule)
	r.DELETE("/modules/:id", h.DeleteModule)
	return r
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
}

func do(t *testing.T, r *gin.Engine, req *http.Request) (int, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid envelope %q: %v", w.Body.String(), err)
	}
	return w.Code, env
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files int) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	for i := 0; i < files; i++ {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="file"; filename="guide.pdf"`)
		h.Set("Content-Type", "application/pdf")
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte("%PDF-1.4"))
	}
	mw.Close()

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestModuleLifecycle(t *testing.T) {
	r := newRouter(t)

	req := multipartRequest(t, http.MethodPost, "/modules", map[string]string{
		"title":    "Heatwave safety guide",
		"category": "General Preparedness",
		"type":     "pdf",
	}, 1)
	code, env := do(t, r, req)
	if code != http.StatusCreated || env.Message != "Module uploaded successfully" {
		t.Fatalf("create = %d %+v", code, env)
	}
	var created struct {
		Module struct {
			ID   string `json:"id"`
			File struct {
				MimeType string `json:"mimetype"`
			} `json:"file"`
			UploadedBy struct {
				Email string `json:"email"`
			} `json:"uploadedBy"`
		} `json:"module"`
	}
	json.Unmarshal(env.Data, &created)
	if created.Module.File.MimeType != "application/pdf" || created.Module.UploadedBy.Email != "trainer@punjab.gov.in" {
		t.Errorf("created = %+v", created.Module)
	}

	for i := 0; i < 2; i++ {
		do(t, r, httptest.NewRequest(http.MethodGet, "/modules/"+created.Module.ID, nil))
	}
	code, env = do(t, r, httptest.NewRequest(http.MethodGet, "/modules/"+created.Module.ID, nil))
	var got struct {
		Module struct {
			Views int64 `json:"views"`
		} `json:"module"`
	}
	json.Unmarshal(env.Data, &got)
	if code != http.StatusOK || got.Module.Views != 3 {
		t.Errorf("views = %d (status %d)", got.Module.Views, code)
	}

	code, env = do(t, r, httptest.NewRequest(http.MethodGet, "/modules?type=pdf", nil))
	var page struct {
		Modules     []json.RawMessage `json:"modules"`
		TotalPages  int               `json:"totalPages"`
		CurrentPage int               `json:"currentPage"`
		Total       int64             `json:"total"`
	}
	json.Unmarshal(env.Data, &page)
	if code != http.StatusOK || len(page.Modules) != 1 || page.Total != 1 || page.TotalPages != 1 || page.CurrentPage != 1 {
		t.Errorf("list = %d %s", code, env.Data)
	}

	code, env = do(t, r, httptest.NewRequest(http.MethodGet, "/modules/search?q=heatwave", nil))
	json.Unmarshal(env.Data, &page)
	if code != http.StatusOK || len(page.Modules) != 1 {
		t.Errorf("search = %d %s", code, env.Data)
	}

	code, env = do(t, r, httptest.NewRequest(http.MethodDelete, "/modules/"+created.Module.ID, nil))
	if code != http.StatusOK || env.Message != "Module deleted successfully" || string(env.Data) != "null" {
		t.Errorf("delete = %d %+v", code, env)
	}
}

func TestModuleErrors(t *testing.T) {
	r := newRouter(t)

	jsonReq := func(method, target, body string) *http.Request {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	tests := []struct {
		name    string
		req     *http.Request
		status  int
		message string
	}{
		{"invalid id", httptest.NewRequest(http.MethodGet, "/modules/nope", nil), http.StatusBadRequest, "Invalid module id"},
		{"unknown id", httptest.NewRequest(http.MethodGet, "/modules/1b4e28ba-2fa1-11d2-883f-0016d3cca427", nil), http.StatusNotFound, "Module not found"},
		{"missing fields", jsonReq(http.MethodPost, "/modules", `{"title":"Drill"}`), http.StatusBadRequest, "Title, category, and type are required"},
		{"youtube json", jsonReq(http.MethodPost, "/modules", `{"title":"Drill","category":"First Aid","type":"youtube","youtubeUrl":"https://example.com"}`), http.StatusBadRequest, "Validation failed"},
		{"two files", multipartRequest(t, http.MethodPost, "/modules", map[string]string{"title": "Guide", "category": "First Aid", "type": "pdf"}, 2), http.StatusBadRequest, "Too many files"},
		{"bad filter", httptest.NewRequest(http.MethodGet, "/modules?status=archived", nil), http.StatusBadRequest, "Invalid filter"},
		{"empty search", httptest.NewRequest(http.MethodGet, "/modules/search", nil), http.StatusBadRequest, "Search query is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, r, tt.req)
			if code != tt.status || env.Message != tt.message || env.Success {
				t.Errorf("got %d %q, want %d %q", code, env.Message, tt.status, tt.message)
			}
		})
	}
}

func TestModuleYoutubeURLIsValidatedOnBind(t *testing.T) {
	r := newRouter(t)

	for _, req := range []*http.Request{
		multipartRequest(t, http.MethodPost, "/modules", map[string]string{
			"title": "Drill", "category": "First Aid", "type": "youtube", "youtubeUrl": "https://vimeo.com/1",
		}, 0),
		multipartRequest(t, http.MethodPut, "/modules/1b4e28ba-2fa1-11d2-883f-0016d3cca427", map[string]string{
			"youtubeUrl": "not a link",
		}, 0),
	} {
		code, env := do(t, r, req)
		var data struct {
			Errors []struct {
				Field   string `json:"field"`
				Message string `json:"message"`
			} `json:"errors"`
		}
		json.Unmarshal(env.Data, &data)
		if code != http.StatusBadRequest || len(data.Errors) != 1 ||
			data.Errors[0].Field != "youtubeUrl" || data.Errors[0].Message != "Please provide a valid YouTube URL" {
			t.Errorf("%s %s = %d %s", req.Method, req.URL.Path, code, env.Data)
		}
	}
}
