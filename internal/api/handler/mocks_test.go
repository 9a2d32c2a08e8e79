package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/d60-Lab/jobboard/internal/model"
	"github.com/d60-Lab/jobboard/internal/repository"
	"github.com/d60-Lab/jobboard/internal/service"
	"github.com/d60-Lab/jobboard/internal/session"
)

type MockAuthService struct{ mock.Mock }

func (m *MockAuthService) Register(ctx context.Context, in service.RegisterInput) (*model.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*model.User), args.Error(2)
}

func (m *MockAuthService) Logout(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuthService) CurrentUser(ctx context.Context, token string) (*session.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

type MockPostingService struct{ mock.Mock }

func (m *MockPostingService) Create(ctx context.Context, ownerID int64, in service.PostingInput) (*model.Posting, error) {
	args := m.Called(ctx, ownerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Posting), args.Error(1)
}

func (m *MockPostingService) Update(ctx context.Context, id, ownerID int64, in service.PostingUpdate) (*model.Posting, error) {
	args := m.Called(ctx, id, ownerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Posting), args.Error(1)
}

func (m *MockPostingService) Delete(ctx context.Context, id, ownerID int64) error {
	return m.Called(ctx, id, ownerID).Error(0)
}

func (m *MockPostingService) GetByRef(ctx context.Context, ref string) (*model.Posting, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Posting), args.Error(1)
}

func (m *MockPostingService) ListPublic(ctx context.Context, category string, page, size int) ([]*repository.PublicPosting, error) {
	args := m.Called(ctx, category, page, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.PublicPosting), args.Error(1)
}

func (m *MockPostingService) ListByUser(ctx context.Context, userID int64) ([]*model.Posting, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Posting), args.Error(1)
}

type MockApplicationService struct{ mock.Mock }

func (m *MockApplicationService) Apply(ctx context.Context, userID, postingID int64, in service.ApplyInput) (service.ApplyResult, error) {
	args := m.Called(ctx, userID, postingID, in)
	return args.Get(0).(service.ApplyResult), args.Error(1)
}

func (m *MockApplicationService) UpdateApplicationStatus(ctx context.Context, applicationID int64, status string, notes *string) (bool, error) {
	args := m.Called(ctx, applicationID, status, notes)
	return args.Bool(0), args.Error(1)
}

func (m *MockApplicationService) Review(ctx context.Context, applicationID, reviewerID int64, status string, notes *string) error {
	return m.Called(ctx, applicationID, reviewerID, status, notes).Error(0)
}

func (m *MockApplicationService) GetApplicationDetails(ctx context.Context, applicationID, userID int64) (*repository.ApplicationDetails, error) {
	args := m.Called(ctx, applicationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ApplicationDetails), args.Error(1)
}

func (m *MockApplicationService) ListByUser(ctx context.Context, userID int64) ([]*repository.UserApplication, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.UserApplication), args.Error(1)
}

func (m *MockApplicationService) ListByPosting(ctx context.Context, postingID, ownerID int64) ([]*repository.PostingApplicant, error) {
	args := m.Called(ctx, postingID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.PostingApplicant), args.Error(1)
}

type MockAnalyticsService struct{ mock.Mock }

func (m *MockAnalyticsService) GetPostingAnalytics(ctx context.Context, postingID, requesterID int64) (*service.PostingAnalytics, error) {
	args := m.Called(ctx, postingID, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PostingAnalytics), args.Error(1)
}

func (m *MockAnalyticsService) GetUserPostingStats(ctx context.Context, userID int64) (*service.UserPostingStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UserPostingStats), args.Error(1)
}

func (m *MockAnalyticsService) CheckUserApplicationExists(ctx context.Context, userID, postingID int64) (bool, error) {
	args := m.Called(ctx, userID, postingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAnalyticsService) GetPostingWithPublicStats(ctx context.Context, postingID int64) (*repository.PublicPosting, error) {
	args := m.Called(ctx, postingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PublicPosting), args.Error(1)
}

type MockViewTracker struct{ mock.Mock }

func (m *MockViewTracker) TrackView(ctx context.Context, in service.ViewInput) (bool, error) {
	args := m.Called(ctx, in)
	return args.Bool(0), args.Error(1)
}

type MockUserService struct{ mock.Mock }

func (m *MockUserService) Get(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, id int64, in service.UserUpdate) (*model.User, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
