package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/middleware"
	"github.com/punjabready/portal-api/internal/modules/mapdata/dto"
	mapdata "github.com/punjabready/portal-api/internal/modules/mapdata/service"
	"github.com/punjabready/portal-api/internal/query"
	"github.com/punjabready/portal-api/pkg/apperror"
	"github.com/punjabready/portal-api/pkg/response"
	"github.com/punjabready/portal-api/pkg/validator"
)

type MapDataHandler struct {
	service mapdata.MapDataService
}

func NewMapDataHandler(service mapdata.MapDataService) *MapDataHandler {
	return &MapDataHandler{service: service}
}

// GetMapData is public; an authenticated admin may add includeInactive=true.
func (h *MapDataHandler) GetMapData(c *gin.Context) {
	var filter query.MapFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ResponseError(c, validator.Translate(err))
		return
	}
	page := query.PageFromStrings(c.Query("page"), c.Query("limit"), query.DefaultMapLimit)
	principal, _ := middleware.PrincipalFrom(c)

	res, err := h.service.GetMapData(c.Request.Context(), principal, filter, page)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "Map data retrieved successfully", res)
}

func (h *MapDataHandler) GetMapDataInBounds(c *gin.Context) {
	bounds, err := query.ParseBounds(c.Query("north"), c.Query("south"), c.Query("east"), c.Query("west"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.GetMapDataInBounds(c.Request.Context(), bounds)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "Map data within bounds retrieved successfully", res)
}

func (h *MapDataHandler) GetMapDataByID(c *gin.Context) {
	id, ok := mapDataID(c)
	if !ok {
		return
	}

	res, err := h.service.GetMapDataByID(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "Map data retrieved successfully", res)
}

func (h *MapDataHandler) CreateMapData(c *gin.Context) {
	var req dto.CreateMapDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, validator.Translate(err))
		return
	}
	principal, _ := middleware.PrincipalFrom(c)

	res, err := h.service.CreateMapData(c.Request.Context(), principal, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Created(c, "Map data created successfully", res)
}

func (h *MapDataHandler) UpdateMapData(c *gin.Context) {
	id, ok := mapDataID(c)
	if !ok {
		return
	}

	var req dto.UpdateMapDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, validator.Translate(err))
		return
	}
	principal, _ := middleware.PrincipalFrom(c)

	res, err := h.service.UpdateMapData(c.Request.Context(), principal, id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "Map data updated successfully", res)
}

func (h *MapDataHandler) DeleteMapData(c *gin.Context) {
	id, ok := mapDataID(c)
	if !ok {
		return
	}
	principal, _ := middleware.PrincipalFrom(c)

	if err := h.service.DeleteMapData(c.Request.Context(), principal, id); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.OK(c, "Map data deleted successfully", nil)
}

func mapDataID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.BadRequest("Invalid map data id"))
		return uuid.Nil, false
	}
	return id, true
}
