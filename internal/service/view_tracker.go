package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/jobboard/internal/metrics"
	"github.com/d60-Lab/jobboard/internal/model"
	"github.com/d60-Lab/jobboard/internal/repository"
)

// UniqueViewWindow 同一身份在此窗口内的重复浏览不计为独立浏览
const UniqueViewWindow = 24 * time.Hour

// ViewInput 一次浏览事件；IP 与 UA 只做留档，不参与去重
type ViewInput struct {
	PostingID int64
	UserID    *int64
	IPAddress *string
	UserAgent *string
	SessionID *string
}

// identity 登录用户优先，其次匿名会话
func (in ViewInput) identity() repository.ViewIdentity {
	if in.UserID != nil {
		return repository.ViewIdentity{UserID: in.UserID}
	}
	if in.SessionID != nil && *in.SessionID != "" {
		return repository.ViewIdentity{SessionID: in.SessionID}
	}
	return repository.ViewIdentity{}
}

// ViewTracker 记录浏览并维护计数
type ViewTracker interface {
	TrackView(ctx context.Context, in ViewInput) (bool, error)
}

type viewTracker struct {
	store *repository.Store
	opts  options
}

func NewViewTracker(store *repository.Store, opts ...Option) ViewTracker {
	return &viewTracker{store: store, opts: buildOptions(opts)}
}

// TrackView 返回本次浏览是否为独立浏览。
// 去重检查与写入之间存在竞争：并发的同身份首次浏览可能都被计为独立浏览。
func (t *viewTracker) TrackView(ctx context.Context, in ViewInput) (bool, error) {
	now := t.opts.clock()
	id := in.identity()
	var unique bool

	err := t.store.WithTx(ctx, func(tx *repository.Store) error {
		p, err := tx.Postings().GetByID(ctx, in.PostingID)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrNotFound
		}

		unique = true
		if !id.Empty() {
			seen, err := tx.Views().HasViewSince(ctx, in.PostingID, id, now.Add(-UniqueViewWindow))
			if err != nil {
				return err
			}
			unique = !seen
		}

		view := &model.PostingView{
			PostingID:    in.PostingID,
			UserID:       in.UserID,
			IPAddress:    in.IPAddress,
			UserAgent:    in.UserAgent,
			SessionID:    in.SessionID,
			ViewedAt:     now,
			IsUniqueView: unique,
		}
		if err := tx.Views().Create(ctx, view); err != nil {
			return err
		}
		if _, err := tx.Postings().IncrementViews(ctx, in.PostingID); err != nil {
			return err
		}
		if err := tx.Metrics().IncrementDailyMetric(ctx, in.PostingID, now, model.MetricViews, 1); err != nil {
			return err
		}
		if unique {
			return tx.Metrics().IncrementDailyMetric(ctx, in.PostingID, now, model.MetricUniqueViews, 1)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			t.opts.log.Error("track view failed", zap.Int64("posting_id", in.PostingID), zap.Error(err))
		}
		return false, err
	}

	kind := metrics.ViewRepeat
	if unique {
		kind = metrics.ViewUnique
	}
	metrics.PostingViewsTotal.WithLabelValues(kind).Inc()
	return unique, nil
}
