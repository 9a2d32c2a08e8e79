package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/jobboard/internal/model"
)

// AnalyticsRepository 只读聚合查询
type AnalyticsRepository interface {
	PostingStats(ctx context.Context, postingID int64) (*PostingStats, error)
	UserOverview(ctx context.Context, userID int64) (*UserOverview, error)
	TopPostings(ctx context.Context, userID int64, limit int) ([]TopPosting, error)
	PublicPosting(ctx context.Context, postingID int64) (*PublicPosting, error)
	ListPublic(ctx context.Context, category string, offset, limit int) ([]*PublicPosting, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository { return &analyticsRepository{db: db} }

// PostingStats 职位不存在时返回 nil, nil
func (r *analyticsRepository) PostingStats(ctx context.Context, postingID int64) (*PostingStats, error) {
	var s PostingStats
	res := r.db.WithContext(ctx).
		Table("postings AS p").
		Select(`p.views,
			(SELECT COUNT(*) FROM posting_views v WHERE v.posting_id = p.id) AS total_views,
			(SELECT COUNT(*) FROM posting_views v WHERE v.posting_id = p.id AND v.is_unique_view = ?) AS unique_views,
			(SELECT COUNT(*) FROM applications a WHERE a.posting_id = p.id) AS application_count`, true).
		Where("p.id = ?", postingID).
		Limit(1).
		Scan(&s)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &s, nil
}

func (r *analyticsRepository) UserOverview(ctx context.Context, userID int64) (*UserOverview, error) {
	var o UserOverview
	if err := r.db.WithContext(ctx).
		Model(&model.Posting{}).
		Select(`COUNT(*) AS total_postings,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS active_postings,
			COALESCE(SUM(views), 0) AS total_views`, model.PostingStatusActive).
		Where("user_id = ?", userID).
		Scan(&o).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Table("applications AS a").
		Joins("JOIN postings p ON p.id = a.posting_id").
		Where("p.user_id = ?", userID).
		Count(&o.TotalApplications).Error; err != nil {
		return nil, err
	}
	if o.TotalPostings > 0 {
		o.AvgViewsPerPosting = float64(o.TotalViews) / float64(o.TotalPostings)
	}
	return &o, nil
}

// TopPostings 按浏览量倒序
func (r *analyticsRepository) TopPostings(ctx context.Context, userID int64, limit int) ([]TopPosting, error) {
	var res []TopPosting
	err := r.db.WithContext(ctx).
		Table("postings AS p").
		Select("p.id, p.hash, p.title, p.views, p.created_at, COUNT(a.id) AS application_count").
		Joins("LEFT JOIN applications a ON a.posting_id = p.id").
		Where("p.user_id = ?", userID).
		Group("p.id, p.hash, p.title, p.views, p.created_at").
		Order("p.views DESC").Order("p.id ASC").
		Limit(limit).
		Scan(&res).Error
	return res, err
}

func (r *analyticsRepository) publicQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("postings AS p").
		Select(`p.id, p.hash, p.user_id, p.title, p.post_description, p.category, p.status, p.views, p.created_at,
			u.name AS creator_name, u.username AS creator_username,
			(SELECT COUNT(*) FROM applications a WHERE a.posting_id = p.id) AS application_count`).
		Joins("JOIN users u ON u.id = p.user_id").
		Where("p.status = ?", model.PostingStatusActive)
}

// PublicPosting 仅返回 active 职位
func (r *analyticsRepository) PublicPosting(ctx context.Context, postingID int64) (*PublicPosting, error) {
	var p PublicPosting
	res := r.publicQuery(ctx).Where("p.id = ?", postingID).Limit(1).Scan(&p)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *analyticsRepository) ListPublic(ctx context.Context, category string, offset, limit int) ([]*PublicPosting, error) {
	q := r.publicQuery(ctx)
	if category != "" {
		q = q.Where("p.category = ?", category)
	}
	var res []*PublicPosting
	err := q.Order("p.created_at DESC").Order("p.id DESC").Offset(offset).Limit(limit).Scan(&res).Error
	return res, err
}
