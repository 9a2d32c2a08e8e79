package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/jobboard/internal/model"
)

type MetricRepository interface {
	// IncrementDailyMetric 对 (posting, day) 行做 upsert 累加
	IncrementDailyMetric(ctx context.Context, postingID int64, at time.Time, field model.MetricField, delta int64) error
	Get(ctx context.Context, postingID int64, day time.Time) (*model.PostingMetric, error)
	ListSince(ctx context.Context, postingID int64, since time.Time) ([]*model.PostingMetric, error)
	UserDailySince(ctx context.Context, userID int64, since time.Time) ([]DailyActivity, error)
}

type metricRepository struct {
	db *gorm.DB
}

func NewMetricRepository(db *gorm.DB) MetricRepository { return &metricRepository{db: db} }

func (r *metricRepository) IncrementDailyMetric(ctx context.Context, postingID int64, at time.Time, field model.MetricField, delta int64) error {
	if !field.Valid() {
		return fmt.Errorf("unknown metric field %q", field)
	}
	m := &model.PostingMetric{
		PostingID:  postingID,
		MetricDate: model.Day(at),
		UpdatedAt:  at.UTC(),
	}
	switch field {
	case model.MetricViews:
		m.ViewsCount = delta
	case model.MetricUniqueViews:
		m.UniqueViewsCount = delta
	case model.MetricApplications:
		m.ApplicationsCount = delta
	}
	col := string(field)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "posting_id"}, {Name: "metric_date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			col:          gorm.Expr(col+" + ?", delta),
			"updated_at": at.UTC(),
		}),
	}).Create(m).Error
}

func (r *metricRepository) Get(ctx context.Context, postingID int64, day time.Time) (*model.PostingMetric, error) {
	var res []*model.PostingMetric
	if err := r.db.WithContext(ctx).
		Where("posting_id = ? AND metric_date = ?", postingID, model.Day(day)).
		Limit(1).Find(&res).Error; err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, nil
	}
	return res[0], nil
}

// ListSince 按日期倒序
func (r *metricRepository) ListSince(ctx context.Context, postingID int64, since time.Time) ([]*model.PostingMetric, error) {
	var res []*model.PostingMetric
	err := r.db.WithContext(ctx).
		Where("posting_id = ? AND metric_date >= ?", postingID, model.Day(since)).
		Order("metric_date DESC").
		Find(&res).Error
	return res, err
}

func (r *metricRepository) UserDailySince(ctx context.Context, userID int64, since time.Time) ([]DailyActivity, error) {
	var res []DailyActivity
	err := r.db.WithContext(ctx).
		Table("posting_metrics AS m").
		Select("m.metric_date, SUM(m.views_count) AS daily_views, SUM(m.unique_views_count) AS daily_unique_views, SUM(m.applications_count) AS daily_applications").
		Joins("JOIN postings p ON p.id = m.posting_id").
		Where("p.user_id = ? AND m.metric_date >= ?", userID, model.Day(since)).
		Group("m.metric_date").
		Order("m.metric_date DESC").
		Scan(&res).Error
	return res, err
}
