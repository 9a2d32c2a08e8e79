package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/jobboard/internal/model"
)

type ViewRepository interface {
	Create(ctx context.Context, v *model.PostingView) error
	// HasViewSince 同一身份在 since 之后是否已浏览过该职位
	HasViewSince(ctx context.Context, postingID int64, id ViewIdentity, since time.Time) (bool, error)
	CountByPosting(ctx context.Context, postingID int64) (int64, error)
}

type viewRepository struct {
	db *gorm.DB
}

func NewViewRepository(db *gorm.DB) ViewRepository { return &viewRepository{db: db} }

func (r *viewRepository) Create(ctx context.Context, v *model.PostingView) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *viewRepository) HasViewSince(ctx context.Context, postingID int64, id ViewIdentity, since time.Time) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&model.PostingView{}).
		Where("posting_id = ? AND viewed_at > ?", postingID, since)
	switch {
	case id.UserID != nil:
		q = q.Where("user_id = ?", *id.UserID)
	case id.SessionID != nil:
		q = q.Where("session_id = ?", *id.SessionID)
	default:
		return false, nil
	}
	var cnt int64
	if err := q.Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *viewRepository) CountByPosting(ctx context.Context, postingID int64) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.PostingView{}).Where("posting_id = ?", postingID).Count(&cnt).Error
	return cnt, err
}
