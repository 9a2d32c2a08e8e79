package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/jobboard/internal/metrics"
	"github.com/d60-Lab/jobboard/internal/model"
	"github.com/d60-Lab/jobboard/internal/repository"
)

// 申请失败原因，属于正常业务结果而非错误
const (
	ApplyPostingNotFound = "posting_not_found"
	ApplyOwnPosting      = "cannot_apply_own_posting"
	ApplyAlreadyApplied  = "already_applied"
)

// ApplyResult 申请结果
type ApplyResult struct {
	Success bool    `json:"success"`
	Error   *string `json:"error"`
}

func applyOK() ApplyResult { return ApplyResult{Success: true} }

func applyFailed(code string) ApplyResult { return ApplyResult{Error: &code} }

// Code 失败原因，成功时为空
func (r ApplyResult) Code() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

// ApplyInput 申请内容，均可为空
type ApplyInput struct {
	Message     *string
	CoverLetter *string
}

// ApplicationService 申请流程：pending -> reviewed -> accepted/rejected
type ApplicationService interface {
	Apply(ctx context.Context, userID, postingID int64, in ApplyInput) (ApplyResult, error)
	// UpdateApplicationStatus 不校验状态值，返回是否有记录被更新
	UpdateApplicationStatus(ctx context.Context, applicationID int64, status string, notes *string) (bool, error)
	Review(ctx context.Context, applicationID, reviewerID int64, status string, notes *string) error
	GetApplicationDetails(ctx context.Context, applicationID, userID int64) (*repository.ApplicationDetails, error)
	ListByUser(ctx context.Context, userID int64) ([]*repository.UserApplication, error)
	ListByPosting(ctx context.Context, postingID, ownerID int64) ([]*repository.PostingApplicant, error)
}

type applicationService struct {
	store *repository.Store
	opts  options
}

func NewApplicationService(store *repository.Store, opts ...Option) ApplicationService {
	return &applicationService{store: store, opts: buildOptions(opts)}
}

var errDuplicateApplication = errors.New("duplicate application")

func (s *applicationService) Apply(ctx context.Context, userID, postingID int64, in ApplyInput) (ApplyResult, error) {
	now := s.opts.clock()
	var result ApplyResult

	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		u, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return ErrAccountGone
		}
		p, err := tx.Postings().GetByID(ctx, postingID)
		if err != nil {
			return err
		}
		if p == nil {
			result = applyFailed(ApplyPostingNotFound)
			return nil
		}
		if p.UserID == userID {
			result = applyFailed(ApplyOwnPosting)
			return nil
		}
		exists, err := tx.Applications().Exists(ctx, userID, postingID)
		if err != nil {
			return err
		}
		if exists {
			result = applyFailed(ApplyAlreadyApplied)
			return nil
		}

		app := &model.Application{
			UserID:      userID,
			PostingID:   postingID,
			Message:     in.Message,
			CoverLetter: in.CoverLetter,
			Status:      model.ApplicationPending,
			AppliedAt:   now,
		}
		if err := tx.Applications().Create(ctx, app); err != nil {
			// 并发申请越过了存在性检查，由唯一索引兜底
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errDuplicateApplication
			}
			return err
		}
		if err := tx.Metrics().IncrementDailyMetric(ctx, postingID, now, model.MetricApplications, 1); err != nil {
			return err
		}
		result = applyOK()
		return nil
	})
	if errors.Is(err, errDuplicateApplication) {
		result, err = applyFailed(ApplyAlreadyApplied), nil
	}
	if errors.Is(err, ErrAccountGone) {
		return ApplyResult{}, err
	}
	if err != nil {
		s.opts.log.Error("apply failed",
			zap.Int64("user_id", userID), zap.Int64("posting_id", postingID), zap.Error(err))
		metrics.ApplicationsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return ApplyResult{}, fmt.Errorf("apply: %w", err)
	}

	label := metrics.ResultSuccess
	if !result.Success {
		label = result.Code()
	}
	metrics.ApplicationsTotal.WithLabelValues(label).Inc()
	return result, nil
}

func (s *applicationService) UpdateApplicationStatus(ctx context.Context, applicationID int64, status string, notes *string) (bool, error) {
	ok, err := s.store.Applications().UpdateStatus(ctx, applicationID, status, notes, s.opts.clock())
	if err != nil {
		return false, fmt.Errorf("update application status: %w", err)
	}
	return ok, nil
}

// Review 校验状态值与职位所有权后更新状态
func (s *applicationService) Review(ctx context.Context, applicationID, reviewerID int64, status string, notes *string) error {
	if !model.ValidApplicationStatus(status) {
		return ErrInvalidStatus
	}
	d, err := s.store.Applications().GetDetails(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("load application: %w", err)
	}
	if d == nil {
		return ErrNotFound
	}
	if d.PostingOwnerID != reviewerID {
		return ErrForbidden
	}
	ok, err := s.UpdateApplicationStatus(ctx, applicationID, status, notes)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.opts.log.Info("application reviewed",
		zap.Int64("application_id", applicationID), zap.String("status", status))
	return nil
}

// GetApplicationDetails 申请人或职位所有者可见，其他人得到 ErrNotFound
func (s *applicationService) GetApplicationDetails(ctx context.Context, applicationID, userID int64) (*repository.ApplicationDetails, error) {
	d, err := s.store.Applications().GetDetails(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("load application: %w", err)
	}
	if d == nil || (d.UserID != userID && d.PostingOwnerID != userID) {
		return nil, ErrNotFound
	}
	return d, nil
}

func (s *applicationService) ListByUser(ctx context.Context, userID int64) ([]*repository.UserApplication, error) {
	rows, err := s.store.Applications().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	if rows == nil {
		rows = []*repository.UserApplication{}
	}
	return rows, nil
}

func (s *applicationService) ListByPosting(ctx context.Context, postingID, ownerID int64) ([]*repository.PostingApplicant, error) {
	p, err := s.store.Postings().GetByID(ctx, postingID)
	if err != nil {
		return nil, fmt.Errorf("load posting: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if p.UserID != ownerID {
		return nil, ErrForbidden
	}
	rows, err := s.store.Applications().ListByPosting(ctx, postingID)
	if err != nil {
		return nil, fmt.Errorf("list applicants: %w", err)
	}
	if rows == nil {
		rows = []*repository.PostingApplicant{}
	}
	return rows, nil
}
