package routes

import (
	"net/http"

	"issue-tracker/internal/config"
	"issue-tracker/internal/delivery/http/handler"
	"issue-tracker/internal/logger"
	"issue-tracker/internal/middleware"
	"issue-tracker/internal/usecase/account"
	"issue-tracker/internal/usecase/auth"
	"issue-tracker/internal/usecase/mailconfig"

	"github.com/gin-gonic/gin"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Auth        *auth.Service
	Accounts    *account.Service
	MailConfigs *mailconfig.Service
}

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Health() error
}

func SetupRoutes(cfg *config.Config, health HealthChecker, services *Services, limiter *middleware.RateLimiter) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware order: recovery, request ID, logging, security headers, CORS, request size limit, rate limit
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))
	if limiter != nil {
		router.Use(limiter.Middleware())
	}

	router.GET("/health", func(c *gin.Context) {
		if err := health.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "Database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
		})
	})

	authHandler := handler.NewAuthHandler(services.Auth)
	accountHandler := handler.NewAccountHandler(services.Accounts)
	smtpHandler := handler.NewSMTPConfigurationHandler(services.MailConfigs)

	api := router.Group("/api")
	{
		authHandler.RegisterRoutes(api)

		protected := api.Group("")
		protected.Use(
			middleware.AuthMiddleware(cfg.JWT.Secret),
			middleware.ActiveAccountMiddleware(services.Accounts),
		)
		{
			authHandler.RegisterSessionRoutes(protected)
			accountHandler.RegisterRoutes(protected)

			admin := protected.Group("")
			admin.Use(middleware.AdminOnly())
			{
				accountHandler.RegisterAdminRoutes(admin)
				smtpHandler.RegisterAdminRoutes(admin)
			}
		}
	}

	logger.Info("All routes initialized")
	return router
}
