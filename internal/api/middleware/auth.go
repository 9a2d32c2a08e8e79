package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/jobboard/internal/session"
	"github.com/d60-Lab/jobboard/pkg/response"
)

const (
	ctxUserID  = "user_id"
	ctxSession = "session"
)

// Session 解析会话 cookie；无会话时继续处理，匿名访问由 RequireAuth 拦截
func Session(store *session.Store, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}
		s, err := store.Get(c.Request.Context(), token)
		if err != nil {
			response.InternalError(c, err)
			c.Abort()
			return
		}
		if s != nil {
			SetSession(c, s)
		}
		c.Next()
	}
}

// SetSession 把会话写入请求上下文
func SetSession(c *gin.Context, s *session.Session) {
	c.Set(ctxUserID, s.UserID)
	c.Set(ctxSession, s)
}

// RequireAuth 必须已登录
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			response.Unauthorized(c, "Not authenticated")
			c.Abort()
			return
		}
		c.Next()
	}
}

// UserID 当前登录用户
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// CurrentSession 当前会话，未登录为 nil
func CurrentSession(c *gin.Context) *session.Session {
	if v, ok := c.Get(ctxSession); ok {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	return nil
}
