package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/jobboard/internal/metrics"
	"github.com/d60-Lab/jobboard/internal/model"
	"github.com/d60-Lab/jobboard/internal/repository"
	"github.com/d60-Lab/jobboard/internal/security"
	"github.com/d60-Lab/jobboard/internal/session"
)

// RegisterInput 注册参数
type RegisterInput struct {
	Name     string
	Surname  string
	Username string
	Email    string
	Password string
}

// AuthService 注册、登录与会话
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (string, *model.User, error)
	Logout(ctx context.Context, token string) (bool, error)
	CurrentUser(ctx context.Context, token string) (*session.Session, error)
}

type authService struct {
	store    *repository.Store
	sessions *session.Store
	hasher   *security.PasswordHasher
	opts     options
}

func NewAuthService(store *repository.Store, sessions *session.Store, hasher *security.PasswordHasher, opts ...Option) AuthService {
	return &authService{store: store, sessions: sessions, hasher: hasher, opts: buildOptions(opts)}
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Surname = strings.TrimSpace(in.Surname)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)

	if in.Name == "" || in.Surname == "" || in.Username == "" || in.Email == "" {
		return nil, s.registerFailed(ErrInvalidInput)
	}
	if strings.EqualFold(in.Username, in.Email) {
		return nil, s.registerFailed(ErrUsernameIsEmail)
	}
	if !security.IsPasswordValid(in.Password) {
		return nil, s.registerFailed(ErrWeakPassword)
	}
	if err := s.checkAvailable(ctx, in.Email, in.Username); err != nil {
		return nil, s.registerFailed(err)
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, s.registerFailed(err)
	}
	u := &model.User{
		Name:           in.Name,
		Surname:        in.Surname,
		Username:       in.Username,
		Email:          in.Email,
		UserType:       model.UserTypeRegular,
		HashedPassword: hashed,
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 并发注册：重新判断是哪一个字段冲突
			if cerr := s.checkAvailable(ctx, in.Email, in.Username); cerr != nil {
				return nil, s.registerFailed(cerr)
			}
		}
		return nil, s.registerFailed(fmt.Errorf("create user: %w", err))
	}
	metrics.AuthRegistrationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	s.opts.log.Info("user registered", zap.Int64("user_id", u.ID))
	return u, nil
}

func (s *authService) checkAvailable(ctx context.Context, email, username string) error {
	byEmail, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup email: %w", err)
	}
	if byEmail != nil {
		return ErrEmailTaken
	}
	byName, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("lookup username: %w", err)
	}
	if byName != nil {
		return ErrUsernameTaken
	}
	return nil
}

func (s *authService) registerFailed(err error) error {
	metrics.AuthRegistrationsTotal.WithLabelValues(metrics.ResultFailure).Inc()
	return err
}

// Login 邮箱不存在与密码错误返回同一个错误
func (s *authService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	u, err := s.store.Users().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil || !s.hasher.Verify(password, u.HashedPassword) {
		metrics.AuthLoginsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return "", nil, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(u.HashedPassword) {
		if hashed, err := s.hasher.Hash(password); err == nil {
			if _, err := s.store.Users().Update(ctx, u.ID, map[string]interface{}{"hashed_password": hashed}); err != nil {
				s.opts.log.Warn("password rehash failed", zap.Int64("user_id", u.ID), zap.Error(err))
			}
		}
	}

	token, err := s.sessions.Create(ctx, u.ID)
	if err != nil {
		return "", nil, err
	}
	metrics.AuthLoginsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	return token, u, nil
}

func (s *authService) Logout(ctx context.Context, token string) (bool, error) {
	return s.sessions.Invalidate(ctx, token)
}

func (s *authService) CurrentUser(ctx context.Context, token string) (*session.Session, error) {
	return s.sessions.Get(ctx, token)
}
