// Package api 组装 gin 路由与中间件
package api

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "github.com/d60-Lab/jobboard/docs"
	"github.com/d60-Lab/jobboard/internal/api/handler"
	"github.com/d60-Lab/jobboard/internal/api/middleware"
	"github.com/d60-Lab/jobboard/internal/session"
	"github.com/d60-Lab/jobboard/internal/visitor"
)

// Deps 路由依赖
type Deps struct {
	Handler       *handler.Handler
	Sessions      *session.Store
	SessionCookie string
	Visitors      *visitor.Issuer
	VisitorCookie string
	SecureCookies bool
	LoginLimiter  *middleware.IPRateLimiter
	// Gatherer 为空时使用 prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
	// Sentry 为 true 时挂载 sentrygin，需事先 sentry.Init
	Sentry bool
	// TracingService 非空时挂载 otelgin
	TracingService string
}

// NewRouter 构建 gin 引擎
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	if d.LoginLimiter == nil {
		d.LoginLimiter = middleware.NewIPRateLimiter(10, 5)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if d.Sentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(middleware.RequestID(), middleware.Logger(d.Logger), middleware.Metrics())
	if d.TracingService != "" {
		r.Use(otelgin.Middleware(d.TracingService))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(middleware.ReportErrors())

	h := d.Handler
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Session(d.Sessions, d.SessionCookie))
	auth := middleware.RequireAuth()

	{
		g := v1.Group("/auth")
		g.POST("/register", h.Register)
		g.POST("/login", d.LoginLimiter.Middleware(), h.Login)
		g.POST("/logout", h.Logout)
		g.GET("/status", h.AuthStatus)
	}
	{
		g := v1.Group("/users")
		g.PUT("/me", auth, h.UpdateMe)
		g.DELETE("/me", auth, h.DeleteMe)
		g.GET("/:id", h.GetUser)
	}
	{
		g := v1.Group("/postings")
		g.GET("", h.ListPostings)
		g.POST("", auth, h.CreatePosting)
		// :id 可以是数字 id 或 hash
		g.GET("/:id", middleware.Visitor(d.Visitors, d.VisitorCookie, d.SecureCookies, d.Logger), h.GetPosting)
		g.PUT("/:id", auth, h.UpdatePosting)
		g.DELETE("/:id", auth, h.DeletePosting)
		g.GET("/:id/analytics", auth, h.PostingAnalytics)
		g.GET("/:id/applications", auth, h.ListPostingApplications)
		g.POST("/:id/apply", auth, h.ApplyToPosting)
	}
	{
		g := v1.Group("/applications", auth)
		g.GET("/:id", h.GetApplication)
		g.POST("/:id/review", h.ReviewApplication)
	}
	{
		g := v1.Group("/me", auth)
		g.GET("/postings", h.MyPostings)
		g.GET("/applications", h.MyApplications)
		g.GET("/dashboard", h.Dashboard)
	}
	return r
}

// WithCORS 在 gin 引擎外层包一层 CORS；带 cookie 的跨域请求需要显式的 origin 列表
func WithCORS(next http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		return next
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.HeaderRequestID},
		ExposedHeaders:   []string{middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	})(next)
}
