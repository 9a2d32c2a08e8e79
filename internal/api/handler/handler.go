package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/jobboard/internal/service"
	"github.com/d60-Lab/jobboard/pkg/response"
)

// Services 处理器依赖的业务服务
type Services struct {
	Auth         service.AuthService
	Postings     service.PostingService
	Applications service.ApplicationService
	Analytics    service.AnalyticsService
	Views        service.ViewTracker
	Users        service.UserService
}

// HealthCheck 健康检查项
type HealthCheck func(ctx context.Context) error

// Config 处理器配置
type Config struct {
	SessionCookie string
	SessionTTL    time.Duration
	SecureCookies bool
	HealthChecks  map[string]HealthCheck
}

// Handler HTTP 处理器
type Handler struct {
	auth      service.AuthService
	postings  service.PostingService
	apps      service.ApplicationService
	analytics service.AnalyticsService
	views     service.ViewTracker
	users     service.UserService
	cfg       Config
	log       *zap.Logger
}

func NewHandler(svc Services, cfg Config, log *zap.Logger) *Handler {
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = "session_token"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		auth:      svc.Auth,
		postings:  svc.Postings,
		apps:      svc.Applications,
		analytics: svc.Analytics,
		views:     svc.Views,
		users:     svc.Users,
		cfg:       cfg,
		log:       log,
	}
}

// Health 健康检查
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}
	for name, check := range h.cfg.HealthChecks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}
	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "Invalid id")
		return 0, false
	}
	return id, true
}

// fail 将业务错误映射为 HTTP 响应
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, "Not found")
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, "Access denied")
	case errors.Is(err, service.ErrInvalidStatus):
		response.BadRequest(c, "Invalid status")
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrUsernameIsEmail),
		errors.Is(err, service.ErrWeakPassword):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrAccountGone):
		response.Unauthorized(c, "Not authenticated")
	case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrUsernameTaken):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

func (h *Handler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.SessionCookie, token, int(h.cfg.SessionTTL.Seconds()), "/", "", h.cfg.SecureCookies, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.SessionCookie, "", -1, "/", "", h.cfg.SecureCookies, true)
}
