package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/access"
	"github.com/punjabready/portal-api/internal/entity"
	"github.com/punjabready/portal-api/internal/query"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AlertRepository interface {
	Create(ctx context.Context, alert *entity.Alert) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Alert, error)
	FindAll(ctx context.Context, filter query.AlertFilter, principal access.Principal, now time.Time, page query.Page) ([]*entity.Alert, int64, error)
	Update(ctx context.Context, alert *entity.Alert) error
	Delete(ctx context.Context, id uuid.UUID) error
}

var priorityRank = fmt.Sprintf(
	"CASE priority WHEN '%s' THEN 0 WHEN '%s' THEN 1 WHEN '%s' THEN 2 ELSE 3 END",
	entity.PriorityCritical, entity.PriorityHigh, entity.PriorityMedium,
)

type alertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) Create(ctx context.Context, alert *entity.Alert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *alertRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Alert, error) {
	var alert entity.Alert
	if err := r.db.WithContext(ctx).
		Preload("CreatedBy").
		Where("id = ?", id).
		First(&alert).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *alertRepository) FindAll(ctx context.Context, filter query.AlertFilter, principal access.Principal, now time.Time, page query.Page) ([]*entity.Alert, int64, error) {
	var alerts []*entity.Alert
	var total int64

	q := r.db.WithContext(ctx).
		Model(&entity.Alert{}).
		Scopes(query.AlertScope(filter, principal, now)).
		Session(&gorm.Session{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Most urgent first, then newest.
	if err := q.Preload("CreatedBy").
		Order(priorityRank).
		Scopes(query.Newest, page.Scope()).
		Find(&alerts).Error; err != nil {
		return nil, 0, err
	}

	return alerts, total, nil
}

func (r *alertRepository) Update(ctx context.Context, alert *entity.Alert) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(alert).Error
}

func (r *alertRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&entity.Alert{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
