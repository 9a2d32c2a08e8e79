package middleware

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// ReportErrors 将 5xx 请求上挂的错误上报 Sentry；未初始化 Sentry 时 hub 为空，直接跳过
func ReportErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Writer.Status() < 500 || len(c.Errors) == 0 {
			return
		}
		hub := sentrygin.GetHubFromContext(c)
		if hub == nil {
			return
		}
		hub.Scope().SetTag("request_id", GetRequestID(c))
		for _, e := range c.Errors {
			hub.CaptureException(e.Err)
		}
	}
}
