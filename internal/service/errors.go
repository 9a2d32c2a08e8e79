package service

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrUsernameIsEmail    = errors.New("username cannot be the same as email")
	ErrWeakPassword       = errors.New("password does not meet the policy")
	// ErrAccountGone 会话仍有效但用户已删除
	ErrAccountGone = errors.New("account no longer exists")
)
