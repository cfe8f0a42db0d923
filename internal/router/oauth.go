package router

import "github.com/gin-gonic/gin"

func (r *Router) oauthRoutes(version *gin.RouterGroup) {
	oauth := version.Group("/auth/oauth")
	{
		google := oauth.Group("/google")
		{
			google.GET("/url", r.oauthHandler.GoogleAuthURL)
			google.POST("/callback", r.oauthHandler.GoogleCallback)
		}

		apple := oauth.Group("/apple")
		{
			apple.GET("/url", r.oauthHandler.AppleAuthURL)
			apple.POST("/callback", r.oauthHandler.AppleCallback)
			apple.POST("/native", r.oauthHandler.AppleNative)
		}
	}
}
