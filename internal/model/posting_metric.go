package model

import "time"

// PostingMetric 每日汇总，(posting_id, metric_date) 唯一
type PostingMetric struct {
	ID                int64     `json:"-" gorm:"primaryKey;autoIncrement"`
	PostingID         int64     `json:"posting_id" gorm:"not null;uniqueIndex:ux_metrics_posting_date,priority:1"`
	MetricDate        time.Time `json:"date" gorm:"type:date;not null;uniqueIndex:ux_metrics_posting_date,priority:2"`
	ViewsCount        int64     `json:"views_count" gorm:"not null;default:0"`
	UniqueViewsCount  int64     `json:"unique_views_count" gorm:"not null;default:0"`
	ApplicationsCount int64     `json:"applications_count" gorm:"not null;default:0"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (PostingMetric) TableName() string { return "posting_metrics" }

// MetricField 可递增的计数列
type MetricField string

const (
	MetricViews        MetricField = "views_count"
	MetricUniqueViews  MetricField = "unique_views_count"
	MetricApplications MetricField = "applications_count"
)

// Valid 防止任意列名进入 SQL
func (f MetricField) Valid() bool {
	switch f {
	case MetricViews, MetricUniqueViews, MetricApplications:
		return true
	}
	return false
}

// Day 截断到 UTC 日期
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
