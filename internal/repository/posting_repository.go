package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/jobboard/internal/model"
)

type PostingRepository interface {
	Create(ctx context.Context, p *model.Posting) error
	GetByID(ctx context.Context, id int64) (*model.Posting, error)
	GetByHash(ctx context.Context, hash string) (*model.Posting, error)
	HashExists(ctx context.Context, hash string) (bool, error)
	Update(ctx context.Context, id int64, fields map[string]interface{}) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Posting, error)
	IncrementViews(ctx context.Context, id int64) (bool, error)
}

type postingRepository struct {
	db *gorm.DB
}

func NewPostingRepository(db *gorm.DB) PostingRepository { return &postingRepository{db: db} }

func (r *postingRepository) Create(ctx context.Context, p *model.Posting) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *postingRepository) GetByID(ctx context.Context, id int64) (*model.Posting, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *postingRepository) GetByHash(ctx context.Context, hash string) (*model.Posting, error) {
	return r.first(ctx, "hash = ?", hash)
}

func (r *postingRepository) first(ctx context.Context, query string, arg interface{}) (*model.Posting, error) {
	var p model.Posting
	err := r.db.WithContext(ctx).Where(query, arg).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postingRepository) HashExists(ctx context.Context, hash string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Posting{}).
		Where("hash = ?", hash).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *postingRepository) Update(ctx context.Context, id int64, fields map[string]interface{}) (bool, error) {
	if len(fields) == 0 {
		return false, nil
	}
	res := r.db.WithContext(ctx).Model(&model.Posting{}).Where("id = ?", id).Updates(fields)
	return res.RowsAffected > 0, res.Error
}

// Delete 同时清理浏览、指标与申请记录
func (r *postingRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&model.PostingView{}, &model.PostingMetric{}, &model.Application{}} {
			if err := tx.Where("posting_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", id).Delete(&model.Posting{})
		deleted = res.RowsAffected > 0
		return res.Error
	})
	return deleted, err
}

func (r *postingRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Posting, error) {
	var res []*model.Posting
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&res).Error
	return res, err
}

// IncrementViews 原子 +1，不做读改写
func (r *postingRepository) IncrementViews(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Posting{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	return res.RowsAffected > 0, res.Error
}
