package mapdata

import (
	"context"

	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/access"
	"github.com/punjabready/portal-api/internal/entity"
	"github.com/punjabready/portal-api/internal/geo"
	"github.com/punjabready/portal-api/internal/modules/mapdata/dto"
	"github.com/punjabready/portal-api/internal/modules/mapdata/repository"
	"github.com/punjabready/portal-api/internal/query"
	"github.com/punjabready/portal-api/pkg/apperror"
	"github.com/punjabready/portal-api/pkg/logging"
	"github.com/punjabready/portal-api/pkg/sanitize"
	"gorm.io/datatypes"
)

const msgMapDataNotFound = "Map data not found"

type MapDataService interface {
	GetMapData(ctx context.Context, principal access.Principal, filter query.MapFilter, page query.Page) (*dto.MapDataListResponse, error)
	GetMapDataByID(ctx context.Context, id uuid.UUID) (*dto.MapDataEnvelope, error)
	GetMapDataInBounds(ctx context.Context, bounds query.Bounds) (*dto.MapDataBoundsResponse, error)
	CreateMapData(ctx context.Context, principal access.Principal, req dto.CreateMapDataRequest) (*dto.MapDataEnvelope, error)
	UpdateMapData(ctx context.Context, principal access.Principal, id uuid.UUID, req dto.UpdateMapDataRequest) (*dto.MapDataEnvelope, error)
	DeleteMapData(ctx context.Context, principal access.Principal, id uuid.UUID) error
}

type mapDataService struct {
	repo repository.MapDataRepository
}

func NewMapDataService(repo repository.MapDataRepository) MapDataService {
	return &mapDataService{repo: repo}
}

func (s *mapDataService) GetMapData(ctx context.Context, principal access.Principal, filter query.MapFilter, page query.Page) (*dto.MapDataListResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	rows, total, err := s.repo.FindAll(ctx, filter, principal, page)
	if err != nil {
		return nil, err
	}

	res := &dto.MapDataListResponse{
		MapData:    make([]dto.MapDataResponse, 0, len(rows)),
		Pagination: query.NewResult(page, total).Pagination(),
	}
	for _, m := range rows {
		res.MapData = append(res.MapData, dto.NewMapDataResponse(m))
	}
	return res, nil
}

func (s *mapDataService) GetMapDataByID(ctx context.Context, id uuid.UUID) (*dto.MapDataEnvelope, error) {
	m, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.MapDataEnvelope{MapData: dto.NewMapDataResponse(m)}, nil
}

// GetMapDataInBounds narrows candidates by envelope in the store, then keeps
// only features whose every vertex lies inside the viewport polygon.
func (s *mapDataService) GetMapDataInBounds(ctx context.Context, bounds query.Bounds) (*dto.MapDataBoundsResponse, error) {
	candidates, err := s.repo.FindWithin(ctx, bounds)
	if err != nil {
		return nil, err
	}

	viewport := bounds.Polygon()
	res := &dto.MapDataBoundsResponse{MapData: make([]dto.MapDataResponse, 0, len(candidates))}
	for _, m := range candidates {
		if viewport.ContainsGeometry(m.Geometry.Data()) {
			res.MapData = append(res.MapData, dto.NewMapDataResponse(m))
		}
	}
	return res, nil
}

func (s *mapDataService) CreateMapData(ctx context.Context, principal access.Principal, req dto.CreateMapDataRequest) (*dto.MapDataEnvelope, error) {
	if err := checkGeometry(req.Type, req.Geometry); err != nil {
		return nil, err
	}

	m := &entity.MapData{
		Type:        req.Type,
		Title:       sanitize.Text(req.Title),
		Description: sanitize.Text(req.Description),
		Category:    req.Category,
		Coordinates: datatypes.JSONSlice[float64](req.Coordinates),
		Geometry:    datatypes.NewJSONType(req.Geometry),
		Properties:  datatypes.JSONMap(req.Properties),
		District:    sanitize.Text(req.District),
		Tehsil:      sanitize.Text(req.Tehsil),
		Village:     sanitize.Text(req.Village),
		CreatedByID: principal.ID,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	logging.Info().
		Str("map_data_id", m.ID.String()).
		Str("type", m.Type).
		Str("user_id", principal.ID.String()).
		Msg("map feature created")

	return s.GetMapDataByID(ctx, m.ID)
}

func (s *mapDataService) UpdateMapData(ctx context.Context, principal access.Principal, id uuid.UUID, req dto.UpdateMapDataRequest) (*dto.MapDataEnvelope, error) {
	m, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanAccessMapData(principal, m.CreatedByID, access.ActionUpdate).Allowed() {
		return nil, apperror.Forbidden("Not authorized to update this map data")
	}

	kind, geometry := m.Type, m.Geometry.Data()
	if req.Type != nil {
		kind = *req.Type
	}
	if req.Geometry != nil {
		geometry = *req.Geometry
	}
	if req.Type != nil || req.Geometry != nil {
		if err := checkGeometry(kind, geometry); err != nil {
			return nil, err
		}
		m.Type = kind
		m.Geometry = datatypes.NewJSONType(geometry)
	}

	if req.Title != nil {
		m.Title = sanitize.Text(*req.Title)
	}
	if req.Description != nil {
		m.Description = sanitize.Text(*req.Description)
	}
	if req.Category != nil {
		m.Category = *req.Category
	}
	if req.Coordinates != nil {
		m.Coordinates = datatypes.JSONSlice[float64](*req.Coordinates)
	}
	if req.Properties != nil {
		m.Properties = datatypes.JSONMap(*req.Properties)
	}
	if req.District != nil {
		m.District = sanitize.Text(*req.District)
	}
	if req.Tehsil != nil {
		m.Tehsil = sanitize.Text(*req.Tehsil)
	}
	if req.Village != nil {
		m.Village = sanitize.Text(*req.Village)
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, apperror.FromRepo(err, msgMapDataNotFound)
	}

	return s.GetMapDataByID(ctx, m.ID)
}

func (s *mapDataService) DeleteMapData(ctx context.Context, principal access.Principal, id uuid.UUID) error {
	m, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanAccessMapData(principal, m.CreatedByID, access.ActionDelete).Allowed() {
		return apperror.Forbidden("Not authorized to delete this map data")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return apperror.FromRepo(err, msgMapDataNotFound)
	}

	logging.Info().
		Str("map_data_id", id.String()).
		Str("user_id", principal.ID.String()).
		Msg("map feature deleted")
	return nil
}

func (s *mapDataService) find(ctx context.Context, id uuid.UUID) (*entity.MapData, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromRepo(err, msgMapDataNotFound)
	}
	return m, nil
}

// checkGeometry enforces the feature kind to geometry type pairing and
// well-formed coordinates.
func checkGeometry(kind string, g geo.Geometry) error {
	if want := entity.GeometryTypeFor(kind); g.Type != want {
		return apperror.Validation("Validation failed", apperror.FieldError{
			Field:   "geometry.type",
			Message: "geometry type must be " + want + " for " + kind + " features",
		})
	}
	if err := g.Validate(); err != nil {
		return apperror.Validation("Validation failed", apperror.FieldError{
			Field:   "geometry.coordinates",
			Message: err.Error(),
		})
	}
	return nil
}
