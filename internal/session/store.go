// Package session 管理 Redis 中的登录会话，是 "session:*" 键的唯一读写方
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "session:"
	tokenBytes = 32
	// DefaultTTL 会话有效期
	DefaultTTL = 7 * 24 * time.Hour
)

// Session 缓存中的会话记录
type Session struct {
	Token     string    `json:"-"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store 会话存储
type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
	now func() time.Time
}

// Option 配置 Store
type Option func(*Store)

// WithTTL 设置会话有效期
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock 注入时钟，测试用
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(rdb redis.Cmdable, opts ...Option) *Store {
	s := &Store{rdb: rdb, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL 当前会话有效期，cookie 的 Max-Age 与之一致
func (s *Store) TTL() time.Duration { return s.ttl }

func key(token string) string { return keyPrefix + token }

// Create 生成新会话并返回 token
func (s *Store) Create(ctx context.Context, userID int64) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	now := s.now().UTC()
	rec := Session{UserID: userID, CreatedAt: now, ExpiresAt: now.Add(s.ttl)}
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, key(token), payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Get 返回有效会话；token 为空、不存在、内容损坏或已过期时返回 nil, nil。
// 过期但仍在缓存中的记录会被立即删除。
func (s *Store) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}
	data, err := s.rdb.Get(ctx, key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var rec Session
	if err := json.Unmarshal(data, &rec); err != nil || rec.ExpiresAt.IsZero() {
		return nil, nil
	}
	if !s.now().Before(rec.ExpiresAt) {
		if err := s.rdb.Del(ctx, key(token)).Err(); err != nil {
			return nil, fmt.Errorf("drop expired session: %w", err)
		}
		return nil, nil
	}
	rec.Token = token
	return &rec, nil
}

// Invalidate 删除会话，返回是否确实删除了记录
func (s *Store) Invalidate(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	n, err := s.rdb.Del(ctx, key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("invalidate session: %w", err)
	}
	return n > 0, nil
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
