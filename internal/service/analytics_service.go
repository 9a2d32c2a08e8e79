package service

import (
	"context"
	"fmt"

	"github.com/d60-Lab/jobboard/internal/model"
	"github.com/d60-Lab/jobboard/internal/repository"
)

const (
	dailyMetricsDays   = 30
	recentActivityDays = 7
	topPostingsLimit   = 5
)

// PostingAnalytics 职位详细统计，仅职位所有者可见
type PostingAnalytics struct {
	PostingID         int64                    `json:"posting_id"`
	Stats             repository.PostingStats  `json:"stats"`
	DailyMetrics      []*model.PostingMetric   `json:"daily_metrics"`
	ApplicationStatus []repository.StatusCount `json:"application_status"`
}

// UserPostingStats 用户仪表盘
type UserPostingStats struct {
	Overview       repository.UserOverview    `json:"overview"`
	TopPostings    []repository.TopPosting    `json:"top_postings"`
	RecentActivity []repository.DailyActivity `json:"recent_activity"`
}

// AnalyticsService 统计查询。
// GetPostingAnalytics 对不存在的职位返回 ErrNotFound，对非所有者返回 ErrForbidden，
// 对外是否区分两者由调用方决定。
type AnalyticsService interface {
	GetPostingAnalytics(ctx context.Context, postingID, requesterID int64) (*PostingAnalytics, error)
	GetUserPostingStats(ctx context.Context, userID int64) (*UserPostingStats, error)
	CheckUserApplicationExists(ctx context.Context, userID, postingID int64) (bool, error)
	GetPostingWithPublicStats(ctx context.Context, postingID int64) (*repository.PublicPosting, error)
}

type analyticsService struct {
	store *repository.Store
	opts  options
}

func NewAnalyticsService(store *repository.Store, opts ...Option) AnalyticsService {
	return &analyticsService{store: store, opts: buildOptions(opts)}
}

func (s *analyticsService) GetPostingAnalytics(ctx context.Context, postingID, requesterID int64) (*PostingAnalytics, error) {
	p, err := s.store.Postings().GetByID(ctx, postingID)
	if err != nil {
		return nil, fmt.Errorf("load posting: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if p.UserID != requesterID {
		return nil, ErrForbidden
	}

	stats, err := s.store.Analytics().PostingStats(ctx, postingID)
	if err != nil {
		return nil, fmt.Errorf("posting stats: %w", err)
	}
	if stats == nil {
		return nil, ErrNotFound
	}
	since := model.Day(s.opts.clock()).AddDate(0, 0, -dailyMetricsDays)
	daily, err := s.store.Metrics().ListSince(ctx, postingID, since)
	if err != nil {
		return nil, fmt.Errorf("daily metrics: %w", err)
	}
	byStatus, err := s.store.Applications().CountByStatus(ctx, postingID)
	if err != nil {
		return nil, fmt.Errorf("application status: %w", err)
	}

	out := &PostingAnalytics{
		PostingID:         postingID,
		Stats:             *stats,
		DailyMetrics:      daily,
		ApplicationStatus: byStatus,
	}
	if out.DailyMetrics == nil {
		out.DailyMetrics = []*model.PostingMetric{}
	}
	if out.ApplicationStatus == nil {
		out.ApplicationStatus = []repository.StatusCount{}
	}
	return out, nil
}

func (s *analyticsService) GetUserPostingStats(ctx context.Context, userID int64) (*UserPostingStats, error) {
	overview, err := s.store.Analytics().UserOverview(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user overview: %w", err)
	}
	top, err := s.store.Analytics().TopPostings(ctx, userID, topPostingsLimit)
	if err != nil {
		return nil, fmt.Errorf("top postings: %w", err)
	}
	since := model.Day(s.opts.clock()).AddDate(0, 0, -recentActivityDays)
	recent, err := s.store.Metrics().UserDailySince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}

	out := &UserPostingStats{Overview: *overview, TopPostings: top, RecentActivity: recent}
	if out.TopPostings == nil {
		out.TopPostings = []repository.TopPosting{}
	}
	if out.RecentActivity == nil {
		out.RecentActivity = []repository.DailyActivity{}
	}
	return out, nil
}

func (s *analyticsService) CheckUserApplicationExists(ctx context.Context, userID, postingID int64) (bool, error) {
	return s.store.Applications().Exists(ctx, userID, postingID)
}

// GetPostingWithPublicStats 非 active 或不存在时返回 ErrNotFound
func (s *analyticsService) GetPostingWithPublicStats(ctx context.Context, postingID int64) (*repository.PublicPosting, error) {
	p, err := s.store.Analytics().PublicPosting(ctx, postingID)
	if err != nil {
		return nil, fmt.Errorf("public posting: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}
