package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	ctxutil "github.com/wavelink/authcore/pkg/context"
	"github.com/wavelink/authcore/pkg/logger"
)

// RequestContext seeds every request with an id and the metadata the
// context logger extracts. A client-supplied X-Request-ID is honored so ids
// correlate across services; otherwise one is minted.
func RequestContext(module string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, module, c.Request.URL.Path)
		ctx = ctxutil.WithRequestID(ctx, requestID)
		ctx = ctxutil.WithClientIP(ctx, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		logger.InfoWithContext(ctx, "Request completed").
			String("method", c.Request.Method).
			String("path", c.Request.URL.Path).
			Int("status_code", c.Writer.Status()).
			Int("response_size", c.Writer.Size()).
			Duration(time.Since(start)).
			Log()
	}
}
