package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/punjabready/portal-api/pkg/response"
)

const pingTimeout = 2 * time.Second

// Pinger checks one backing service.
type Pinger func(ctx context.Context) error

type HealthResponse struct {
	Environment string `json:"environment"`
	Database    string `json:"database"`
	Redis       string `json:"redis"`
}

type HealthHandler struct {
	env   string
	db    Pinger
	redis Pinger
}

// NewHealthHandler reports Redis as "disabled" when redis is nil.
func NewHealthHandler(env string, db, redis Pinger) *HealthHandler {
	return &HealthHandler{env: env, db: db, redis: redis}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	res := HealthResponse{
		Environment: h.env,
		Database:    status(ctx, h.db),
		Redis:       status(ctx, h.redis),
	}

	if res.Database != "ok" || res.Redis == "unhealthy" {
		c.JSON(http.StatusServiceUnavailable, response.New(false, "Service unhealthy", res, http.StatusServiceUnavailable))
		return
	}
	response.OK(c, "Server is running", res)
}

func status(ctx context.Context, ping Pinger) string {
	if ping == nil {
		return "disabled"
	}
	if err := ping(ctx); err != nil {
		return "unhealthy"
	}
	return "ok"
}
