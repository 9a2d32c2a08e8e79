package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/jobboard/internal/visitor"
)

const ctxVisitorID = "visitor_id"

// Visitor 为匿名访客维持签名 cookie，访客 ID 用作浏览去重的 session_id
func Visitor(issuer *visitor.Issuer, cookieName string, secure bool, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := c.Cookie(cookieName); err == nil && raw != "" {
			if id, err := issuer.Parse(raw); err == nil {
				c.Set(ctxVisitorID, id)
				c.Next()
				return
			}
		}
		id, token, err := issuer.Issue()
		if err != nil {
			log.Warn("issue visitor token failed", zap.Error(err))
			c.Next()
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookieName, token, int(issuer.TTL().Seconds()), "/", "", secure, true)
		c.Set(ctxVisitorID, id)
		c.Next()
	}
}

// VisitorID 当前访客 ID，可能为空
func VisitorID(c *gin.Context) string {
	return c.GetString(ctxVisitorID)
}
