package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wavelink/authcore/internal/constants"
	"github.com/wavelink/authcore/internal/service"
	ctxutil "github.com/wavelink/authcore/pkg/context"
	"github.com/wavelink/authcore/pkg/logger"
	"go.uber.org/zap"
)

// Gin context keys populated by RequireAuth.
const (
	CtxUserID      = "user_id"
	CtxTenantID    = "tenant_id"
	CtxUserEmail   = "user_email"
	CtxUserRole    = "user_role"
	CtxAccessToken = "access_token"
)

type JWTMiddleware struct {
	auth *service.AuthService
}

func NewJWTMiddleware(auth *service.AuthService) *JWTMiddleware {
	return &JWTMiddleware{auth: auth}
}

// RequireAuth runs the hybrid check: signature and expiry first, then the
// session row behind the token hash. A revoked session fails here even when
// the JWT itself is still valid.
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("unauthorized", nil))
			c.Abort()
			return
		}

		user, _, err := m.auth.ValidateAccessToken(c.Request.Context(), token)
		if err != nil {
			logger.GetLogger().Warn("Access token rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Error(err))
			c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("unauthorized", nil))
			c.Abort()
			return
		}

		c.Set(CtxUserID, user.ID)
		c.Set(CtxTenantID, user.TenantID)
		c.Set(CtxUserEmail, user.Email)
		c.Set(CtxUserRole, user.Role)
		c.Set(CtxAccessToken, token)

		ctx := ctxutil.WithUser(c.Request.Context(), user.ID, user.TenantID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireRole gates a route to the listed roles. It assumes RequireAuth
// already ran.
func (m *JWTMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxUserRole)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, constants.BuildErrorResponse("forbidden", nil))
		c.Abort()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
