package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/access"
	"github.com/punjabready/portal-api/internal/entity"
	"github.com/punjabready/portal-api/internal/query"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MapDataRepository interface {
	Create(ctx context.Context, m *entity.MapData) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.MapData, error)
	FindAll(ctx context.Context, filter query.MapFilter, principal access.Principal, page query.Page) ([]*entity.MapData, int64, error)
	// FindWithin returns active features whose envelope lies inside b.
	FindWithin(ctx context.Context, b query.Bounds) ([]*entity.MapData, error)
	Update(ctx context.Context, m *entity.MapData) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type mapDataRepository struct {
	db *gorm.DB
}

func NewMapDataRepository(db *gorm.DB) MapDataRepository {
	return &mapDataRepository{db: db}
}

func (r *mapDataRepository) Create(ctx context.Context, m *entity.MapData) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *mapDataRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.MapData, error) {
	var m entity.MapData
	if err := r.db.WithContext(ctx).
		Preload("CreatedBy").
		Where("id = ?", id).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *mapDataRepository) FindAll(ctx context.Context, filter query.MapFilter, principal access.Principal, page query.Page) ([]*entity.MapData, int64, error) {
	var rows []*entity.MapData
	var total int64

	q := r.db.WithContext(ctx).
		Model(&entity.MapData{}).
		Scopes(filter.Scope(principal)).
		Session(&gorm.Session{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := q.Preload("CreatedBy").
		Scopes(query.Newest, page.Scope()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (r *mapDataRepository) FindWithin(ctx context.Context, b query.Bounds) ([]*entity.MapData, error) {
	var rows []*entity.MapData
	err := r.db.WithContext(ctx).
		Preload("CreatedBy").
		Where("is_active = ?", true).
		Scopes(b.Scope(), query.Newest).
		Find(&rows).Error
	return rows, err
}

// Update saves every column; BeforeSave refreshes the envelope.
func (r *mapDataRepository) Update(ctx context.Context, m *entity.MapData) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(m).Error
}

func (r *mapDataRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&entity.MapData{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
