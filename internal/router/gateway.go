package router

import "github.com/gin-gonic/gin"

func (r *Router) gatewayRoutes(version *gin.RouterGroup) {
	gateway := version.Group("/gateway")
	{
		// Validate serves realtime infrastructure on the internal network;
		// the token in the body is the whole credential.
		gateway.POST("/validate", r.gatewayHandler.Validate)

		protected := gateway.Group("")
		protected.Use(r.jwtMw.RequireAuth())
		{
			protected.POST("/revoke", r.gatewayHandler.Revoke)
		}
	}
}
