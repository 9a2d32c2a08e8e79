package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/d60-Lab/jobboard/internal/api/middleware"
	"github.com/d60-Lab/jobboard/internal/model"
	"github.com/d60-Lab/jobboard/internal/repository"
	"github.com/d60-Lab/jobboard/internal/service"
	"github.com/d60-Lab/jobboard/internal/session"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type harness struct {
	auth      *MockAuthService
	postings  *MockPostingService
	apps      *MockApplicationService
	analytics *MockAnalyticsService
	views     *MockViewTracker
	users     *MockUserService
	handler   *Handler
}

func newHarness(checks map[string]HealthCheck) *harness {
	hs := &harness{
		auth:      new(MockAuthService),
		postings:  new(MockPostingService),
		apps:      new(MockApplicationService),
		analytics: new(MockAnalyticsService),
		views:     new(MockViewTracker),
		users:     new(MockUserService),
	}
	hs.handler = NewHandler(Services{
		Auth:         hs.auth,
		Postings:     hs.postings,
		Applications: hs.apps,
		Analytics:    hs.analytics,
		Views:        hs.views,
		Users:        hs.users,
	}, Config{SessionTTL: time.Hour, HealthChecks: checks}, zap.NewNop())
	return hs
}

// engine 以 uid 身份登录；uid 为 0 表示匿名
func (hs *harness) engine(uid int64) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if uid > 0 {
			middleware.SetSession(c, &session.Session{Token: "tok", UserID: uid})
		}
		c.Next()
	})
	h := hs.handler
	r.GET("/health", h.Health)
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.GET("/auth/status", h.AuthStatus)
	r.GET("/postings", h.ListPostings)
	r.POST("/postings", h.CreatePosting)
	r.GET("/postings/:id", h.GetPosting)
	r.PUT("/postings/:id", h.UpdatePosting)
	r.DELETE("/postings/:id", h.DeletePosting)
	r.POST("/postings/:id/apply", h.ApplyToPosting)
	r.GET("/postings/:id/applications", h.ListPostingApplications)
	r.GET("/postings/:id/analytics", h.PostingAnalytics)
	r.GET("/applications/:id", h.GetApplication)
	r.POST("/applications/:id/review", h.ReviewApplication)
	r.GET("/me/dashboard", h.Dashboard)
	r.DELETE("/users/me", h.DeleteMe)
	return r
}

func do(r http.Handler, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestHealth(t *testing.T) {
	hs := newHarness(map[string]HealthCheck{
		"db":    func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("down") },
	})
	w := do(hs.engine(0), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Checks["db"])
	assert.Equal(t, "down", body.Checks["redis"])
}

func TestRegister(t *testing.T) {
	hs := newHarness(nil)
	r := hs.engine(0)

	in := service.RegisterInput{Name: "Ann", Surname: "Lee", Username: "annlee", Email: "ann@example.com", Password: "Secret1!"}
	hs.auth.On("Register", mock.Anything, in).Return(&model.User{ID: 1, Username: "annlee"}, nil).Once()
	w := do(r, http.MethodPost, "/auth/register", gin.H{
		"name": "Ann", "surname": "Lee", "username": "annlee", "email": "ann@example.com", "password": "Secret1!",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var u model.User
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &u))
	assert.Equal(t, int64(1), u.ID)

	dup := service.RegisterInput{Name: "Bob", Surname: "Lee", Username: "boblee", Email: "ann@example.com", Password: "Secret1!"}
	hs.auth.On("Register", mock.Anything, dup).Return(nil, service.ErrEmailTaken).Once()
	w = do(r, http.MethodPost, "/auth/register", gin.H{
		"name": "Bob", "surname": "Lee", "username": "boblee", "email": "ann@example.com", "password": "Secret1!",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	hs.auth.AssertExpectations(t)
}

func TestRegister_WeakPassword(t *testing.T) {
	hs := newHarness(nil)
	w := do(hs.engine(0), http.MethodPost, "/auth/register", gin.H{
		"name": "Ann", "surname": "Lee", "username": "annlee", "email": "ann@example.com", "password": "secret",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	hs.auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegister_PasswordTooLong(t *testing.T) {
	hs := newHarness(nil)
	w := do(hs.engine(0), http.MethodPost, "/auth/register", gin.H{
		"name": "Ann", "surname": "Lee", "username": "annlee", "email": "ann@example.com",
		"password": "Engine1!" + strings.Repeat("a", 70),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	hs.auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestLogin(t *testing.T) {
	hs := newHarness(nil)
	r := hs.engine(0)

	hs.auth.On("Login", mock.Anything, "ann@example.com", "Secret1!").Return("tok-123", &model.User{ID: 1}, nil)
	hs.auth.On("Login", mock.Anything, "ann@example.com", "wrong").Return("", nil, service.ErrInvalidCredentials)

	w := do(r, http.MethodPost, "/auth/login", gin.H{"email": "ann@example.com", "password": "Secret1!"})
	assert.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session_token", cookies[0].Name)
	assert.Equal(t, "tok-123", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	w = do(r, http.MethodPost, "/auth/login", gin.H{"email": "ann@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestLogout(t *testing.T) {
	hs := newHarness(nil)
	hs.auth.On("Logout", mock.Anything, "tok").Return(true, nil)

	w := do(hs.engine(0), http.MethodPost, "/auth/logout", nil, &http.Cookie{Name: "session_token", Value: "tok"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"logged_out":true}`, string(decode(t, w).Data))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestAuthStatus(t *testing.T) {
	hs := newHarness(nil)

	w := do(hs.engine(0), http.MethodGet, "/auth/status", nil)
	assert.JSONEq(t, `{"authenticated":false}`, string(decode(t, w).Data))

	w = do(hs.engine(7), http.MethodGet, "/auth/status", nil)
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, true, data["authenticated"])
	assert.Equal(t, float64(7), data["user_id"])
}

func TestApplyToPosting(t *testing.T) {
	str := func(s string) *string { return &s }
	tests := []struct {
		name     string
		result   service.ApplyResult
		wantCode int
		wantErr  interface{}
	}{
		{"success", service.ApplyResult{Success: true}, http.StatusCreated, nil},
		{"not found", service.ApplyResult{Error: str(service.ApplyPostingNotFound)}, http.StatusNotFound, service.ApplyPostingNotFound},
		{"own posting", service.ApplyResult{Error: str(service.ApplyOwnPosting)}, http.StatusConflict, service.ApplyOwnPosting},
		{"duplicate", service.ApplyResult{Error: str(service.ApplyAlreadyApplied)}, http.StatusConflict, service.ApplyAlreadyApplied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newHarness(nil)
			msg := "hello"
			hs.apps.On("Apply", mock.Anything, int64(7), int64(42), service.ApplyInput{Message: &msg}).Return(tt.result, nil)

			w := do(hs.engine(7), http.MethodPost, "/postings/42/apply", gin.H{"message": msg})
			assert.Equal(t, tt.wantCode, w.Code)

			var res map[string]interface{}
			require.NoError(t, json.Unmarshal(decode(t, w).Data, &res))
			assert.Equal(t, tt.result.Success, res["success"])
			assert.Equal(t, tt.wantErr, res["error"])
			hs.apps.AssertExpectations(t)
		})
	}
}

func TestApplyToPosting_EmptyBody(t *testing.T) {
	hs := newHarness(nil)
	hs.apps.On("Apply", mock.Anything, int64(7), int64(42), service.ApplyInput{}).Return(service.ApplyResult{Success: true}, nil)

	w := do(hs.engine(7), http.MethodPost, "/postings/42/apply", nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	hs.apps.AssertExpectations(t)
}

func TestApplyToPosting_AccountGone(t *testing.T) {
	hs := newHarness(nil)
	hs.apps.On("Apply", mock.Anything, int64(7), int64(42), service.ApplyInput{}).Return(service.ApplyResult{}, service.ErrAccountGone)

	w := do(hs.engine(7), http.MethodPost, "/postings/42/apply", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	hs.apps.AssertExpectations(t)
}

func TestGetPosting_Anonymous(t *testing.T) {
	hs := newHarness(nil)
	p := &model.Posting{ID: 42, Hash: "abcdef123456", UserID: 1, Status: model.PostingStatusActive}
	hs.postings.On("GetByRef", mock.Anything, "abcdef123456").Return(p, nil)
	hs.analytics.On("GetPostingWithPublicStats", mock.Anything, int64(42)).
		Return(&repository.PublicPosting{ID: 42, Hash: p.Hash, CreatorName: "Ann Lee", ApplicationCount: 3}, nil)
	hs.views.On("TrackView", mock.Anything, mock.MatchedBy(func(in service.ViewInput) bool {
		return in.PostingID == 42 && in.UserID == nil && in.IPAddress != nil && *in.IPAddress == "192.0.2.1"
	})).Return(true, nil)

	w := do(hs.engine(0), http.MethodGet, "/postings/abcdef123456", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Posting    repository.PublicPosting `json:"posting"`
		HasApplied bool                     `json:"has_applied"`
		IsOwner    bool                     `json:"is_owner"`
		UniqueView bool                     `json:"unique_view"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, int64(3), data.Posting.ApplicationCount)
	assert.False(t, data.HasApplied)
	assert.False(t, data.IsOwner)
	assert.True(t, data.UniqueView)
	hs.analytics.AssertNotCalled(t, "CheckUserApplicationExists", mock.Anything, mock.Anything, mock.Anything)
	hs.views.AssertExpectations(t)
}

func TestGetPosting_AuthenticatedApplicant(t *testing.T) {
	hs := newHarness(nil)
	p := &model.Posting{ID: 42, UserID: 1, Status: model.PostingStatusActive}
	hs.postings.On("GetByRef", mock.Anything, "42").Return(p, nil)
	hs.analytics.On("GetPostingWithPublicStats", mock.Anything, int64(42)).Return(&repository.PublicPosting{ID: 42}, nil)
	hs.analytics.On("CheckUserApplicationExists", mock.Anything, int64(9), int64(42)).Return(true, nil)
	hs.views.On("TrackView", mock.Anything, mock.MatchedBy(func(in service.ViewInput) bool {
		return in.UserID != nil && *in.UserID == 9
	})).Return(false, nil)

	w := do(hs.engine(9), http.MethodGet, "/postings/42", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, true, data["has_applied"])
	assert.Equal(t, false, data["unique_view"])
}

func TestGetPosting_InactiveHiddenFromOthers(t *testing.T) {
	hs := newHarness(nil)
	p := &model.Posting{ID: 42, UserID: 1, Status: model.PostingStatusClosed}
	hs.postings.On("GetByRef", mock.Anything, "42").Return(p, nil)

	w := do(hs.engine(9), http.MethodGet, "/postings/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	hs.views.AssertNotCalled(t, "TrackView", mock.Anything, mock.Anything)
	hs.analytics.AssertNotCalled(t, "GetPostingWithPublicStats", mock.Anything, mock.Anything)
}

func TestGetPosting_InactiveVisibleToOwner(t *testing.T) {
	hs := newHarness(nil)
	p := &model.Posting{ID: 42, UserID: 1, Title: "Closed role", Status: model.PostingStatusClosed}
	hs.postings.On("GetByRef", mock.Anything, "42").Return(p, nil)
	hs.views.On("TrackView", mock.Anything, mock.Anything).Return(false, errors.New("db gone"))

	w := do(hs.engine(1), http.MethodGet, "/postings/42", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Posting model.Posting `json:"posting"`
		IsOwner bool          `json:"is_owner"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, "Closed role", data.Posting.Title)
	assert.True(t, data.IsOwner)
}

func TestGetPosting_StatsReadAfterTracking(t *testing.T) {
	hs := newHarness(nil)
	p := &model.Posting{ID: 42, UserID: 1, Status: model.PostingStatusActive, Views: 4}
	hs.postings.On("GetByRef", mock.Anything, "42").Return(p, nil)

	var calls []string
	hs.views.On("TrackView", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { calls = append(calls, "track") }).
		Return(true, nil)
	hs.analytics.On("GetPostingWithPublicStats", mock.Anything, int64(42)).
		Run(func(mock.Arguments) { calls = append(calls, "stats") }).
		Return(&repository.PublicPosting{ID: 42, Views: 5}, nil)

	w := do(hs.engine(0), http.MethodGet, "/postings/42", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"track", "stats"}, calls)

	var data struct {
		Posting repository.PublicPosting `json:"posting"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, int64(5), data.Posting.Views)
}

func TestGetPosting_Unknown(t *testing.T) {
	hs := newHarness(nil)
	hs.postings.On("GetByRef", mock.Anything, "nope").Return(nil, service.ErrNotFound)

	w := do(hs.engine(0), http.MethodGet, "/postings/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", decode(t, w).Message)
}

func TestListPostings_Defaults(t *testing.T) {
	hs := newHarness(nil)
	hs.postings.On("ListPublic", mock.Anything, "", 1, 20).Return([]*repository.PublicPosting{}, nil)
	hs.postings.On("ListPublic", mock.Anything, "go", 2, 5).Return([]*repository.PublicPosting{{ID: 1}}, nil)

	w := do(hs.engine(0), http.MethodGet, "/postings", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"page":1,"page_size":20,"list":[]}`, string(decode(t, w).Data))

	w = do(hs.engine(0), http.MethodGet, "/postings?category=go&page=2&page_size=5", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(hs.engine(0), http.MethodGet, "/postings?page_size=500", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	hs.postings.AssertExpectations(t)
}

func TestCreatePosting(t *testing.T) {
	hs := newHarness(nil)
	in := service.PostingInput{Title: "Go dev", PostDescription: "Build services", Category: "engineering"}
	hs.postings.On("Create", mock.Anything, int64(7), in).Return(&model.Posting{ID: 1, Hash: "abcdef123456"}, nil)

	w := do(hs.engine(7), http.MethodPost, "/postings", gin.H{"title": "Go dev", "post_description": "Build services", "category": "engineering"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(hs.engine(7), http.MethodPost, "/postings", gin.H{"title": "no description"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	hs.postings.AssertNumberOfCalls(t, "Create", 1)
}

func TestUpdatePosting(t *testing.T) {
	hs := newHarness(nil)
	status := model.PostingStatusClosed
	hs.postings.On("Update", mock.Anything, int64(42), int64(7), service.PostingUpdate{Status: &status}).
		Return(&model.Posting{ID: 42, Status: status}, nil)
	hs.postings.On("Update", mock.Anything, int64(43), int64(7), mock.Anything).Return(nil, service.ErrForbidden)

	w := do(hs.engine(7), http.MethodPut, "/postings/42", gin.H{"status": "closed"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(hs.engine(7), http.MethodPut, "/postings/42", gin.H{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(hs.engine(7), http.MethodPut, "/postings/43", gin.H{"title": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access denied", decode(t, w).Message)
}

func TestDeletePosting_InvalidID(t *testing.T) {
	hs := newHarness(nil)
	w := do(hs.engine(7), http.MethodDelete, "/postings/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	hs.postings.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestPostingAnalytics_HidesForbidden(t *testing.T) {
	hs := newHarness(nil)
	hs.analytics.On("GetPostingAnalytics", mock.Anything, int64(42), int64(9)).Return(nil, service.ErrForbidden)
	hs.analytics.On("GetPostingAnalytics", mock.Anything, int64(42), int64(1)).
		Return(&service.PostingAnalytics{PostingID: 42}, nil)

	w := do(hs.engine(9), http.MethodGet, "/postings/42/analytics", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(hs.engine(1), http.MethodGet, "/postings/42/analytics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReviewApplication(t *testing.T) {
	hs := newHarness(nil)
	r := hs.engine(1)
	notes := "strong profile"
	hs.apps.On("Review", mock.Anything, int64(5), int64(1), model.ApplicationAccepted, &notes).Return(nil)
	hs.apps.On("Review", mock.Anything, int64(6), int64(1), model.ApplicationRejected, (*string)(nil)).Return(service.ErrForbidden)

	w := do(r, http.MethodPost, "/applications/5/review", gin.H{"status": "accepted", "reviewer_notes": notes})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/applications/5/review", gin.H{"status": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid status", decode(t, w).Message)

	w = do(r, http.MethodPost, "/applications/6/review", gin.H{"status": "rejected"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	hs.apps.AssertExpectations(t)
}

func TestGetApplication_NotVisible(t *testing.T) {
	hs := newHarness(nil)
	hs.apps.On("GetApplicationDetails", mock.Anything, int64(5), int64(9)).Return(nil, service.ErrNotFound)

	w := do(hs.engine(9), http.MethodGet, "/applications/5", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboard_InternalError(t *testing.T) {
	hs := newHarness(nil)
	hs.analytics.On("GetUserPostingStats", mock.Anything, int64(7)).Return(nil, errors.New("boom"))

	w := do(hs.engine(7), http.MethodGet, "/me/dashboard", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestDeleteMe(t *testing.T) {
	hs := newHarness(nil)
	hs.users.On("Delete", mock.Anything, int64(7)).Return(nil)
	hs.auth.On("Logout", mock.Anything, "tok").Return(true, nil)

	w := do(hs.engine(7), http.MethodDelete, "/users/me", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	hs.users.AssertExpectations(t)
	hs.auth.AssertExpectations(t)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session_token", cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}
