// Package visitor 为匿名访客签发 HS256 令牌，令牌的 subject 即浏览去重用的 session_id
package visitor

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid visitor token")

// Issuer 签发与校验访客令牌
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer secret 为空时生成进程内随机密钥（重启后旧令牌失效）
func NewIssuer(secret, issuer string, ttl time.Duration) (*Issuer, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate visitor key: %w", err)
		}
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Issuer{secret: key, issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// TTL 令牌有效期
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue 生成新的访客 ID 及其令牌
func (i *Issuer) Issue() (id, token string, err error) {
	id = uuid.NewString()
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   id,
		Issuer:    i.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign visitor token: %w", err)
	}
	return id, token, nil
}

// Parse 校验签名、签发者与有效期，返回访客 ID
func (i *Issuer) Parse(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
