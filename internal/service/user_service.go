package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/jobboard/internal/cache"
	"github.com/d60-Lab/jobboard/internal/model"
	"github.com/d60-Lab/jobboard/internal/repository"
)

// UserUpdate 部分更新资料
type UserUpdate struct {
	Name     *string
	Surname  *string
	Username *string
}

// UserService 用户资料
type UserService interface {
	Get(ctx context.Context, id int64) (*model.User, error)
	Update(ctx context.Context, id int64, in UserUpdate) (*model.User, error)
	Delete(ctx context.Context, id int64) error
}

type userService struct {
	store *repository.Store
	cache *cache.ReadCache
	opts  options
}

// NewUserService cache 可为 nil
func NewUserService(store *repository.Store, c *cache.ReadCache, opts ...Option) UserService {
	return &userService{store: store, cache: c, opts: buildOptions(opts)}
}

func (s *userService) Get(ctx context.Context, id int64) (*model.User, error) {
	load := func(ctx context.Context) (*model.User, error) {
		return s.store.Users().GetByID(ctx, id)
	}
	var (
		u   *model.User
		err error
	)
	if s.cache != nil {
		u, err = s.cache.User(ctx, id, load)
	} else {
		u, err = load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *userService) Update(ctx context.Context, id int64, in UserUpdate) (*model.User, error) {
	fields := map[string]interface{}{}
	set := func(col string, v *string) {
		if v != nil && strings.TrimSpace(*v) != "" {
			fields[col] = strings.TrimSpace(*v)
		}
	}
	set("name", in.Name)
	set("surname", in.Surname)
	set("username", in.Username)

	current, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if current == nil {
		return nil, ErrNotFound
	}
	if name, ok := fields["username"].(string); ok {
		if strings.EqualFold(name, current.Email) {
			return nil, ErrUsernameIsEmail
		}
		other, err := s.store.Users().GetByUsername(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("lookup username: %w", err)
		}
		if other != nil && other.ID != id {
			return nil, ErrUsernameTaken
		}
	}

	if len(fields) > 0 {
		if _, err := s.store.Users().Update(ctx, id, fields); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, ErrUsernameTaken
			}
			return nil, fmt.Errorf("update user: %w", err)
		}
		_, nameChanged := fields["name"]
		_, usernameChanged := fields["username"]
		s.invalidate(ctx, id, nameChanged || usernameChanged)
	}
	u, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// Delete 同时删除该用户的职位与申请。其他已签发的会话不主动吊销，
// 之后的写操作会得到 ErrAccountGone
func (s *userService) Delete(ctx context.Context, id int64) error {
	ok, err := s.store.Users().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	s.invalidate(ctx, id, true)
	s.opts.log.Info("user deleted", zap.Int64("user_id", id))
	return nil
}

// invalidate listing 为 true 时公开列表中的创建者信息也已过时
func (s *userService) invalidate(ctx context.Context, id int64, listing bool) {
	if s.cache == nil {
		return
	}
	s.cache.InvalidateUser(ctx, id)
	if listing {
		s.cache.InvalidatePostings(ctx)
	}
}
