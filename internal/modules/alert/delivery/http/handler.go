package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/punjabready/portal-api/internal/access"
	"github.com/punjabready/portal-api/internal/entity"
	"github.com/punjabready/portal-api/internal/middleware"
	"github.com/punjabready/portal-api/internal/modules/alert/dto"
	alert "github.com/punjabready/portal-api/internal/modules/alert/service"
	"github.com/punjabready/portal-api/internal/query"
	"github.com/punjabready/portal-api/pkg/apperror"
	"github.com/punjabready/portal-api/pkg/logging"
	"github.com/punjabready/portal-api/pkg/metrics"
	"github.com/punjabready/portal-api/pkg/response"
	"github.com/punjabready/portal-api/pkg/validator"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type AlertHandler struct {
	service  alert.AlertService
	upgrader websocket.Upgrader
}

// NewAlertHandler accepts websocket upgrades from any origin listed in
// origins, or from every origin when origins contains "*".
func NewAlertHandler(service alert.AlertService, origins []string) *AlertHandler {
	return &AlertHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || entity.Contains(origins, "*") || entity.Contains(origins, origin)
			},
		},
	}
}

func (h *AlertHandler) GetAlerts(c *gin.Context) {
	var filter query.AlertFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ResponseError(c, validator.Translate(err))
		return
	}
	page := query.PageFromStrings(c.Query("page"), c.Query("limit"), query.DefaultAlertLimit)
	principal, _ := middleware.PrincipalFrom(c)

	res, err := h.service.GetAlerts(c.Request.Context(), principal, filter, page)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "Alerts retrieved successfully", res)
}

func (h *AlertHandler) GetAlert(c *gin.Context) {
	id, ok := alertID(c)
	if !ok {
		return
	}
	principal, _ := middleware.PrincipalFrom(c)

	res, err := h.service.GetAlert(c.Request.Context(), principal, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "Alert retrieved successfully", res)
}

func (h *AlertHandler) CreateAlert(c *gin.Context) {
	var req dto.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, validator.Translate(err))
		return
	}
	principal, _ := middleware.PrincipalFrom(c)

	res, err := h.service.CreateAlert(c.Request.Context(), principal, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Created(c, "Alert created successfully", res)
}

func (h *AlertHandler) UpdateAlert(c *gin.Context) {
	id, ok := alertID(c)
	if !ok {
		return
	}

	var req dto.UpdateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, validator.Translate(err))
		return
	}
	principal, _ := middleware.PrincipalFrom(c)

	res, err := h.service.UpdateAlert(c.Request.Context(), principal, id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "Alert updated successfully", res)
}

func (h *AlertHandler) DeleteAlert(c *gin.Context) {
	id, ok := alertID(c)
	if !ok {
		return
	}
	principal, _ := middleware.PrincipalFrom(c)

	if err := h.service.DeleteAlert(c.Request.Context(), principal, id); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "Alert deleted successfully", nil)
}

// Live upgrades to a websocket and streams alert events the caller's role
// may see. Clients only ever read; anything they send is discarded.
func (h *AlertHandler) Live(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.ResponseError(c, apperror.Unauthorized("Not authorized, no token"))
		return
	}

	ctx := c.Request.Context()
	sub, err := h.service.Subscribe(ctx)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn().Err(err).Msg("failed to upgrade alert websocket")
		return
	}
	defer conn.Close()

	metrics.AlertSubscribers.Inc()
	defer metrics.AlertSubscribers.Dec()

	log := logging.With("alerts-ws")
	log.Debug().Str("user_id", principal.ID.String()).Msg("alert subscriber connected")

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-sub.C():
			if !ok {
				return
			}
			if !visible(payload, principal) {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debug().Err(err).Msg("failed to write alert event")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		}
	}
}

func visible(payload []byte, p access.Principal) bool {
	var ev dto.AlertEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return false
	}
	if access.IsAdmin(p.Role) {
		return true
	}
	return entity.Contains(ev.Audience, entity.AudienceAll) || entity.Contains(ev.Audience, p.Role)
}

func alertID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.BadRequest("Invalid alert id"))
		return uuid.Nil, false
	}
	return id, true
}
