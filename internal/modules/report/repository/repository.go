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

type ReportRepository interface {
	Create(ctx context.Context, report *entity.Report) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Report, error)
	FindAll(ctx context.Context, filter query.ReportFilter, principal access.Principal, page query.Page) ([]*entity.Report, int64, error)
	Update(ctx context.Context, report *entity.Report) error
	Delete(ctx context.Context, id uuid.UUID) error

	StatusCounts(ctx context.Context) (StatusRow, error)
	CategoryCounts(ctx context.Context) ([]CategoryRow, error)
	TopDistricts(ctx context.Context, limit int) ([]DistrictRow, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func withOwners(db *gorm.DB) *gorm.DB {
	return db.
		Preload("ReportedBy").
		Preload("AssignedTo").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

func (r *reportRepository) Create(ctx context.Context, report *entity.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *reportRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Report, error) {
	var report entity.Report
	if err := r.db.WithContext(ctx).
		Scopes(withOwners).
		Where("id = ?", id).
		First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) FindAll(ctx context.Context, filter query.ReportFilter, principal access.Principal, page query.Page) ([]*entity.Report, int64, error) {
	var reports []*entity.Report
	var total int64

	q := r.db.WithContext(ctx).
		Model(&entity.Report{}).
		Scopes(query.ReportScope(filter, principal)).
		Session(&gorm.Session{})

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := q.Scopes(withOwners, query.Newest, page.Scope()).Find(&reports).Error; err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}

// Update writes the report columns only; images are never replaced here.
func (r *reportRepository) Update(ctx context.Context, report *entity.Report) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(report).Error
}

func (r *reportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", id).Delete(&entity.ReportImage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&entity.Report{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
