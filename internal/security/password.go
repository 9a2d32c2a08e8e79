// Package security 负责密码哈希、校验与密码强度策略
package security

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength 密码最短长度
const MinPasswordLength = 6

// MaxPasswordLength bcrypt 只接受 72 字节以内的输入
const MaxPasswordLength = 72

// PasswordSymbols 密码策略接受的符号
const PasswordSymbols = "!@#$%^&*()-_=+[]{}|;:'\",.<>?/`~\\"

// PasswordHasher 基于 bcrypt，每次哈希使用独立盐值
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher cost 超出 bcrypt 允许范围时回落到默认值
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Cost 当前工作因子
func (h *PasswordHasher) Cost() int { return h.cost }

func (h *PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify 比较交给 bcrypt 完成；不匹配或摘要损坏都返回 false
func (h *PasswordHasher) Verify(password, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

// NeedsRehash 摘要的 cost 与当前配置不一致
func (h *PasswordHasher) NeedsRehash(hashed string) bool {
	cost, err := bcrypt.Cost([]byte(hashed))
	return err != nil || cost != h.cost
}

// IsPasswordValid 字节长度在 6 到 72 之间，且至少包含一个大写字母、一个数字、一个符号
func IsPasswordValid(password string) bool {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return false
	}
	var upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}
	return upper && digit && symbol
}
