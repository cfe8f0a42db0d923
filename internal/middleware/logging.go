package middleware

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wavelink/authcore/internal/constants"
	"github.com/wavelink/authcore/pkg/logger"
	"go.uber.org/zap"
)

// Logging routes gin's access log through zap and flags slow requests.
func Logging() gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			logger.LogRequest(
				param.Method,
				param.Path,
				param.StatusCode,
				param.Latency.Milliseconds(),
				param.ClientIP,
				param.Request.UserAgent(),
			)

			if param.Latency > 2*time.Second {
				logger.GetLogger().Warn("Slow request",
					zap.String("method", param.Method),
					zap.String("path", param.Path),
					zap.Duration("latency", param.Latency))
			}

			return ""
		},
		Output: io.Discard,
	})
}

// Recovery converts panics into a 500 with a structured log entry instead
// of a dropped connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.LogPanic(r)
				c.JSON(http.StatusInternalServerError, constants.BuildErrorResponse("internal server error", nil))
				c.Abort()
			}
		}()
		c.Next()
	}
}
