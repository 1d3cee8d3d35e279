package repository

import (
	"context"

	"github.com/punjabready/portal-api/internal/entity"
)

type StatusRow struct {
	Total      int64
	Pending    int64
	InProgress int64
	Resolved   int64
}

type CategoryRow struct {
	ID         string
	Count      int64
	Pending    int64
	InProgress int64
	Resolved   int64
}

type DistrictRow struct {
	ID    string
	Count int64
}

const statusSums = `COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending,
	COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS in_progress,
	COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS resolved`

func statusArgs() []any {
	return []any{entity.ReportStatusPending, entity.ReportStatusInProgress, entity.ReportStatusResolved}
}

func (r *reportRepository) StatusCounts(ctx context.Context) (StatusRow, error) {
	var row StatusRow
	err := r.db.WithContext(ctx).
		Model(&entity.Report{}).
		Select("COUNT(*) AS total, "+statusSums, statusArgs()...).
		Scan(&row).Error
	return row, err
}

func (r *reportRepository) CategoryCounts(ctx context.Context) ([]CategoryRow, error) {
	rows := []CategoryRow{}
	err := r.db.WithContext(ctx).
		Model(&entity.Report{}).
		Select("category AS id, COUNT(*) AS count, "+statusSums, statusArgs()...).
		Group("category").
		Order("count DESC").
		Order("category ASC").
		Scan(&rows).Error
	return rows, err
}

// TopDistricts ranks districts by report count. Reports without a district
// are left out.
func (r *reportRepository) TopDistricts(ctx context.Context, limit int) ([]DistrictRow, error) {
	rows := []DistrictRow{}
	err := r.db.WithContext(ctx).
		Model(&entity.Report{}).
		Select("location_district AS id, COUNT(*) AS count").
		Where("location_district <> ''").
		Group("location_district").
		Order("count DESC").
		Order("location_district ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
