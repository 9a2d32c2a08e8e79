package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/jobboard/internal/model"
)

type ApplicationRepository interface {
	// Create 重复申请时返回 gorm.ErrDuplicatedKey（需开启 TranslateError）
	Create(ctx context.Context, a *model.Application) error
	Exists(ctx context.Context, userID, postingID int64) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status string, notes *string, at time.Time) (bool, error)
	GetDetails(ctx context.Context, id int64) (*ApplicationDetails, error)
	ListByUser(ctx context.Context, userID int64) ([]*UserApplication, error)
	ListByPosting(ctx context.Context, postingID int64) ([]*PostingApplicant, error)
	CountByStatus(ctx context.Context, postingID int64) ([]StatusCount, error)
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, a *model.Application) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *applicationRepository) Exists(ctx context.Context, userID, postingID int64) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("user_id = ? AND posting_id = ?", userID, postingID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *applicationRepository) UpdateStatus(ctx context.Context, id int64, status string, notes *string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         status,
			"reviewer_notes": notes,
			"reviewed_at":    at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *applicationRepository) GetDetails(ctx context.Context, id int64) (*ApplicationDetails, error) {
	var d ApplicationDetails
	res := r.db.WithContext(ctx).
		Table("applications AS a").
		Select(`a.id, a.user_id, a.posting_id, a.message, a.cover_letter, a.status, a.reviewer_notes,
			a.applied_at, a.reviewed_at,
			p.title AS posting_title, p.hash AS posting_hash, p.user_id AS posting_owner_id,
			u.name AS applicant_name, u.email AS applicant_email`).
		Joins("JOIN postings p ON p.id = a.posting_id").
		Joins("JOIN users u ON u.id = a.user_id").
		Where("a.id = ?", id).
		Limit(1).
		Scan(&d)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &d, nil
}

// ListByUser 按申请时间倒序
func (r *applicationRepository) ListByUser(ctx context.Context, userID int64) ([]*UserApplication, error) {
	var res []*UserApplication
	err := r.db.WithContext(ctx).
		Table("applications AS a").
		Select(`a.id, a.posting_id, a.message, a.cover_letter, a.status, a.applied_at, a.reviewed_at,
			p.title, p.post_description, p.category, p.created_at AS posting_created_at, p.hash AS posting_hash,
			u.name AS posting_creator_name`).
		Joins("JOIN postings p ON p.id = a.posting_id").
		Joins("JOIN users u ON u.id = p.user_id").
		Where("a.user_id = ?", userID).
		Order("a.applied_at DESC").Order("a.id DESC").
		Scan(&res).Error
	return res, err
}

func (r *applicationRepository) ListByPosting(ctx context.Context, postingID int64) ([]*PostingApplicant, error) {
	var res []*PostingApplicant
	err := r.db.WithContext(ctx).
		Table("applications AS a").
		Select("a.id, a.user_id, a.message, a.cover_letter, a.status, a.applied_at, u.name, u.email").
		Joins("JOIN users u ON u.id = a.user_id").
		Where("a.posting_id = ?", postingID).
		Order("a.applied_at DESC").Order("a.id DESC").
		Scan(&res).Error
	return res, err
}

func (r *applicationRepository) CountByStatus(ctx context.Context, postingID int64) ([]StatusCount, error) {
	var res []StatusCount
	err := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Select("status, COUNT(*) AS count").
		Where("posting_id = ?", postingID).
		Group("status").
		Order("status").
		Scan(&res).Error
	return res, err
}
