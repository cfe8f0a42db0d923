package router

import (
	"github.com/gin-gonic/gin"
	"github.com/wavelink/authcore/internal/constants"
)

func (r *Router) auditRoutes(version *gin.RouterGroup) {
	audit := version.Group("/audit")
	audit.Use(r.jwtMw.RequireAuth())
	audit.Use(r.jwtMw.RequireRole(constants.RoleOwner, constants.RoleAdmin))
	{
		audit.GET("", r.auditHandler.List)
	}
}
