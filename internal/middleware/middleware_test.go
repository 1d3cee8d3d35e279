package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/entity"
	"github.com/punjabready/portal-api/internal/query"
	userService "github.com/punjabready/portal-api/internal/modules/user/service"
	"github.com/punjabready/portal-api/pkg/ratelimiter"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type fakeUserRepo struct {
	users map[uuid.UUID]*entity.User
}

func (f *fakeUserRepo) Create(context.Context, *entity.User) error { return nil }
func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) FindByEmail(context.Context, string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) FindAll(context.Context, query.UserFilter, query.Page) ([]*entity.User, int64, error) {
	return nil, 0, nil
}
func (f *fakeUserRepo) Update(context.Context, *entity.User) error                  { return nil }
func (f *fakeUserRepo) TouchLastLogin(context.Context, uuid.UUID, time.Time) error { return nil }
func (f *fakeUserRepo) Delete(context.Context, uuid.UUID) error                     { return nil }
func (f *fakeUserRepo) Count(context.Context) (int64, error)                        { return 0, nil }

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(repo *fakeUserRepo) *gin.Engine {
	auth := NewAuthMiddleware(repo, testSecret)
	r := gin.New()
	r.Use(Recovery())
	r.GET("/me", auth.RequireAuth(), func(c *gin.Context) {
		p, _ := PrincipalFrom(c)
		c.JSON(http.StatusOK, gin.H{"role": p.Role})
	})
	r.GET("/admin", auth.RequireAuth(), auth.RequireRoles(entity.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/public", auth.OptionalAuth(), func(c *gin.Context) {
		_, ok := PrincipalFrom(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.NoRoute(NotFound())
	return r
}

func token(t *testing.T, id uuid.UUID) string {
	t.Helper()
	tok, err := userService.NewTokenIssuer(testSecret, time.Hour).Issue(id)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", w.Body.String(), err)
	}
	return body
}

func TestRequireAuth(t *testing.T) {
	active := &entity.User{ID: uuid.New(), Role: entity.RoleUser, IsActive: true}
	inactive := &entity.User{ID: uuid.New(), Role: entity.RoleUser}
	repo := &fakeUserRepo{users: map[uuid.UUID]*entity.User{active.ID: active, inactive.ID: inactive}}
	r := newRouter(repo)

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
		wantMsg    string
	}{
		{"no token", "", "", http.StatusUnauthorized, "Not authorized, no token"},
		{"garbage", "Bearer nope", "", http.StatusUnauthorized, "Not authorized, token failed"},
		{"unknown user", "Bearer " + token(t, uuid.New()), "", http.StatusUnauthorized, "Not authorized, user not found"},
		{"inactive", "Bearer " + token(t, inactive.ID), "", http.StatusUnauthorized, "Account is deactivated. Please contact administrator."},
		{"header", "Bearer " + token(t, active.ID), "", http.StatusOK, ""},
		{"query param", "", "?token=" + token(t, active.ID), http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantMsg != "" {
				body := decode(t, w)
				if body["message"] != tt.wantMsg || body["success"] != false {
					t.Errorf("body = %v", body)
				}
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	user := &entity.User{ID: uuid.New(), Role: entity.RoleModerator, IsActive: true}
	admin := &entity.User{ID: uuid.New(), Role: entity.RoleAdmin, IsActive: true}
	r := newRouter(&fakeUserRepo{users: map[uuid.UUID]*entity.User{user.ID: user, admin.ID: admin}})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, user.ID))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("moderator status = %d, want 403", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, admin.ID))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("admin status = %d, want 204", w.Code)
	}
}

func TestOptionalAuth(t *testing.T) {
	u := &entity.User{ID: uuid.New(), Role: entity.RoleUser, IsActive: true}
	r := newRouter(&fakeUserRepo{users: map[uuid.UUID]*entity.User{u.ID: u}})

	for _, tc := range []struct {
		header string
		want   bool
	}{
		{"", false},
		{"Bearer broken", false},
		{"Bearer " + token(t, u.ID), true},
	} {
		req := httptest.NewRequest(http.MethodGet, "/public", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK || decode(t, w)["authenticated"] != tc.want {
			t.Errorf("header %q: status %d body %s", tc.header, w.Code, w.Body.String())
		}
	}
}

func TestRecoveryAndNotFound(t *testing.T) {
	r := newRouter(&fakeUserRepo{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if w.Code != http.StatusInternalServerError || decode(t, w)["message"] != "Server Error" {
		t.Errorf("panic response = %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if w.Code != http.StatusNotFound || decode(t, w)["message"] != "Route not found" {
		t.Errorf("404 response = %d %s", w.Code, w.Body.String())
	}
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(ratelimiter.NewMemoryLimiter(2, time.Minute)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
		if i == 2 {
			body := decode(t, w)
			if body["message"] != rateLimitMessage || w.Header().Get("Retry-After") == "" {
				t.Errorf("limited response = %v headers %v", body, w.Header())
			}
		}
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}
