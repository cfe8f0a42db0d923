package router

import "github.com/gin-gonic/gin"

func (r *Router) authRoutes(version *gin.RouterGroup) {
	auth := version.Group("/auth")
	{
		// Public routes
		auth.POST("/register", r.authHandler.Register)
		auth.POST("/login", r.authHandler.Login)
		auth.POST("/refresh", r.authHandler.Refresh)
		auth.POST("/check-user", r.authHandler.CheckUser)
		auth.POST("/verify-email", r.authHandler.VerifyEmail)
		auth.POST("/resend-verification", r.authHandler.ResendVerification)
		auth.POST("/reset-password/request", r.authHandler.RequestPasswordReset)
		auth.POST("/reset-password/confirm", r.authHandler.ConfirmPasswordReset)

		// Protected routes
		protected := auth.Group("")
		protected.Use(r.jwtMw.RequireAuth())
		{
			protected.GET("/me", r.authHandler.Me)
			protected.DELETE("/me", r.authHandler.DeleteAccount)
			protected.POST("/logout", r.authHandler.Logout)
			protected.POST("/logout-all", r.authHandler.LogoutAll)
			protected.POST("/gateway-token", r.gatewayHandler.Exchange)
		}
	}
}
