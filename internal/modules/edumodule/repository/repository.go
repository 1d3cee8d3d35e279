package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/entity"
	"github.com/punjabready/portal-api/internal/query"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ModuleRepository interface {
	Create(ctx context.Context, m *entity.Module) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Module, error)
	// FindByIDs keeps the order of ids and skips ids that no longer exist.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Module, error)
	FindAll(ctx context.Context, filter query.ModuleFilter, page query.Page) ([]*entity.Module, int64, error)
	Update(ctx context.Context, m *entity.Module) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type moduleRepository struct {
	db *gorm.DB
}

func NewModuleRepository(db *gorm.DB) ModuleRepository {
	return &moduleRepository{db: db}
}

func (r *moduleRepository) Create(ctx context.Context, m *entity.Module) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *moduleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Module, error) {
	var m entity.Module
	if err := r.db.WithContext(ctx).
		Preload("UploadedBy").
		Where("id = ?", id).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *moduleRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Module, error) {
	if len(ids) == 0 {
		return []*entity.Module{}, nil
	}

	var rows []*entity.Module
	if err := r.db.WithContext(ctx).
		Preload("UploadedBy").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*entity.Module, len(rows))
	for _, m := range rows {
		byID[m.ID] = m
	}
	ordered := make([]*entity.Module, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			ordered = append(ordered, m)
		}
	}
	return ordered, nil
}

func (r *moduleRepository) FindAll(ctx context.Context, filter query.ModuleFilter, page query.Page) ([]*entity.Module, int64, error) {
	var rows []*entity.Module
	var total int64

	q := r.db.WithContext(ctx).
		Model(&entity.Module{}).
		Scopes(filter.Scope()).
		Session(&gorm.Session{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := q.Preload("UploadedBy").
		Scopes(query.Newest, page.Scope()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (r *moduleRepository) Update(ctx context.Context, m *entity.Module) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(m).Error
}

// IncrementViews bumps the counter in a single statement so concurrent
// readers never lose an increment.
func (r *moduleRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Module{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *moduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&entity.Module{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
