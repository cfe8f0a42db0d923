package router

import (
	"github.com/gin-gonic/gin"
	"github.com/wavelink/authcore/config"
	"github.com/wavelink/authcore/internal/handler"
	"github.com/wavelink/authcore/internal/middleware"
	"github.com/wavelink/authcore/pkg/ratelimit"
)

type Router struct {
	authHandler    *handler.AuthHandler
	oauthHandler   *handler.OAuthHandler
	gatewayHandler *handler.GatewayHandler
	auditHandler   *handler.AuditHandler
	healthHandler  *handler.HealthHandler

	jwtMw   *middleware.JWTMiddleware
	limiter *ratelimit.Limiter
	config  *config.Config
}

func NewRouter(
	auth *handler.AuthHandler,
	oauth *handler.OAuthHandler,
	gateway *handler.GatewayHandler,
	audit *handler.AuditHandler,
	health *handler.HealthHandler,
	jwtMw *middleware.JWTMiddleware,
	limiter *ratelimit.Limiter,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:    auth,
		oauthHandler:   oauth,
		gatewayHandler: gateway,
		auditHandler:   audit,
		healthHandler:  health,
		jwtMw:          jwtMw,
		limiter:        limiter,
		config:         cfg,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	if !r.config.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logging())
	router.Use(middleware.RequestContext("api"))
	router.Use(middleware.CORS())

	router.GET("/health", r.healthHandler.Liveness)
	router.GET("/readyz", r.healthHandler.Readiness)

	api := router.Group("/api")
	{
		v1 := api.Group("/v1")
		v1.Use(middleware.RateLimit(r.limiter))
		{
			r.authRoutes(v1)
			r.oauthRoutes(v1)
			r.gatewayRoutes(v1)
			r.auditRoutes(v1)
		}
	}

	return router
}
