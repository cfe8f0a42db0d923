package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wavelink/authcore/internal/constants"
	apperrors "github.com/wavelink/authcore/internal/errors"
	"github.com/wavelink/authcore/pkg/ratelimit"
)

// RateLimit enforces the per-client fixed window. The identifier is the
// client IP; authenticated routes sit behind this as well, so a client
// cannot reset its budget by rotating tokens.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := limiter.Allow(c.Request.Context(), c.ClientIP())

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Max()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
			c.JSON(http.StatusTooManyRequests, constants.BuildErrorResponse(apperrors.GetErrorMessage(apperrors.ErrRateLimited), gin.H{
				"retry_after": int(result.RetryAfter.Seconds()),
			}))
			c.Abort()
			return
		}

		c.Next()
	}
}
