package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	configs "github.com/wavelink/authcore/config"
	"github.com/wavelink/authcore/internal/handler"
	"github.com/wavelink/authcore/internal/middleware"
	"github.com/wavelink/authcore/internal/repository"
	"github.com/wavelink/authcore/internal/router"
	"github.com/wavelink/authcore/internal/service"
	"github.com/wavelink/authcore/pkg/database"
	"github.com/wavelink/authcore/pkg/logger"
	"github.com/wavelink/authcore/pkg/queue"
	"github.com/wavelink/authcore/pkg/ratelimit"
	redispkg "github.com/wavelink/authcore/pkg/redis"
	"github.com/wavelink/authcore/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	if err := logger.InitLogger(config); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
	)

	db, err := database.NewPostgresDB(database.Config{
		Host:            config.Database.Host,
		Port:            config.Database.Port,
		User:            config.Database.User,
		Password:        config.Database.Password,
		Database:        config.Database.Name,
		SSLMode:         config.Database.SSLMode,
		MaxIdleConns:    config.Database.MaxIdleConns,
		MaxOpenConns:    config.Database.MaxOpenConns,
		ConnMaxLifetime: config.Database.ConnMaxLifetime,
		ConnMaxIdleTime: config.Database.ConnMaxIdleTime,
	})
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if err := database.AutoMigrate(db); err != nil {
		logger.GetLogger().Fatal("Failed to run database migrations", zap.Error(err))
	}
	logger.GetLogger().Info("Database migrated successfully")

	redisClient, err := redispkg.NewClient(config)
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	if err := validation.RegisterCustomValidators(); err != nil {
		logger.GetLogger().Fatal("Failed to register validators", zap.Error(err))
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	onetimeRepo := repository.NewOneTimeTokenRepository(db)
	linkRepo := repository.NewOAuthLinkRepository(db)
	gatewayRepo := repository.NewGatewayTokenRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Services
	publisher := queue.NewPublisher(config.Queue.URL, config.Queue.EmailQueue)
	mailerService := service.NewMailerService(publisher)
	auditService := service.NewAuditService(auditRepo)
	tokenService := service.NewTokenService(
		config.Token.AccessSecret,
		config.Token.RefreshSecret,
		config.Token.AccessExpiration,
		config.Token.RefreshExpiration,
	)
	authService := service.NewAuthService(
		userRepo,
		tenantRepo,
		sessionRepo,
		onetimeRepo,
		gatewayRepo,
		tokenService,
		auditService,
		mailerService,
		config.Token.VerifyExpiration,
		config.Token.ResetExpiration,
	)
	oauthService := service.NewOAuthService(
		userRepo,
		linkRepo,
		authService,
		auditService,
		service.NewGoogleProvider(config.Google),
		service.NewAppleProvider(config.Apple),
	)
	gatewayService := service.NewGatewayService(
		gatewayRepo,
		auditService,
		config.Gateway.TokenExpiration,
		config.Gateway.StaticSecret,
	)

	// Rate limiting uses the shared redis counter so every replica sees
	// the same window.
	limiter := ratelimit.NewLimiter(
		redisClient,
		config.RateLimit.Request,
		time.Duration(config.RateLimit.Duration)*time.Second,
	)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	oauthHandler := handler.NewOAuthHandler(oauthService)
	gatewayHandler := handler.NewGatewayHandler(gatewayService)
	auditHandler := handler.NewAuditHandler(auditService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	jwtMiddleware := middleware.NewJWTMiddleware(authService)

	r := router.NewRouter(
		authHandler,
		oauthHandler,
		gatewayHandler,
		auditHandler,
		healthHandler,
		jwtMiddleware,
		limiter,
		config,
	).SetupRoutes()

	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
		)
		if err := r.Run(":" + config.App.Port); err != nil {
			logger.GetLogger().Fatal("Failed to start server",
				zap.Error(err),
				zap.String("port", config.App.Port),
			)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.GetLogger().Info("Shutting down server...")
}
