// @title Job Board API
// @version 1.0
// @description 职位发布、申请与浏览统计服务
// @BasePath /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/jobboard/internal/api"
	"github.com/d60-Lab/jobboard/internal/api/handler"
	"github.com/d60-Lab/jobboard/internal/api/middleware"
	"github.com/d60-Lab/jobboard/internal/cache"
	"github.com/d60-Lab/jobboard/internal/config"
	"github.com/d60-Lab/jobboard/internal/metrics"
	"github.com/d60-Lab/jobboard/internal/repository"
	"github.com/d60-Lab/jobboard/internal/security"
	"github.com/d60-Lab/jobboard/internal/service"
	"github.com/d60-Lab/jobboard/internal/session"
	"github.com/d60-Lab/jobboard/internal/visitor"
	"github.com/d60-Lab/jobboard/pkg/logger"
	"github.com/d60-Lab/jobboard/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.Server.Environment, cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	sentryOn := cfg.Sentry.DSN != ""
	if sentryOn {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Server.Environment,
			EnableTracing:    cfg.Sentry.TracesSampleRate > 0,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		}); err != nil {
			return err
		}
		defer sentry.Flush(2 * time.Second)
	}

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	db, err := repository.OpenPostgres(cfg.Database.DSN, repository.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, cfg.Database.LogSQL)
	if err != nil {
		return err
	}
	store := repository.NewStore(db)
	defer func() { _ = store.Close() }()
	if cfg.Database.AutoMigrate {
		if err := store.InitSchema(); err != nil {
			return err
		}
		log.Info("schema migrated")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable at startup", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}

	sessions := session.NewStore(rdb, session.WithTTL(cfg.Session.TTL))
	issuer, err := visitor.NewIssuer(cfg.Visitor.SigningKey, cfg.Visitor.Issuer, cfg.Visitor.TTL)
	if err != nil {
		return err
	}
	if cfg.Visitor.SigningKey == "" {
		log.Warn("visitor.signing_key not set, visitor cookies will not survive restarts")
	}
	readCache := cache.NewReadCache(rdb, cfg.Cache.UserTTL, cfg.Cache.PostingTTL, log.Named("cache"))

	opts := []service.Option{service.WithLogger(log.Named("service"))}
	h := handler.NewHandler(handler.Services{
		Auth:         service.NewAuthService(store, sessions, security.NewPasswordHasher(cfg.Security.BcryptCost), opts...),
		Postings:     service.NewPostingService(store, readCache, opts...),
		Applications: service.NewApplicationService(store, opts...),
		Analytics:    service.NewAnalyticsService(store, opts...),
		Views:        service.NewViewTracker(store, opts...),
		Users:        service.NewUserService(store, readCache, opts...),
	}, handler.Config{
		SessionCookie: cfg.Session.CookieName,
		SessionTTL:    sessions.TTL(),
		SecureCookies: cfg.Server.SecureCookies,
		HealthChecks: map[string]handler.HealthCheck{
			"database": store.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	}, log.Named("http"))

	if err := handler.RegisterValidators(); err != nil {
		return err
	}
	metrics.MustRegister(prometheus.DefaultRegisterer)

	tracingService := ""
	if cfg.Tracing.Enabled {
		tracingService = cfg.Tracing.ServiceName
	}
	router := api.NewRouter(api.Deps{
		Handler:        h,
		Sessions:       sessions,
		SessionCookie:  cfg.Session.CookieName,
		Visitors:       issuer,
		VisitorCookie:  cfg.Visitor.CookieName,
		SecureCookies:  cfg.Server.SecureCookies,
		LoginLimiter:   middleware.NewIPRateLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst),
		Logger:         log.Named("access"),
		Sentry:         sentryOn,
		TracingService: tracingService,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.WithCORS(router, cfg.CORS.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
