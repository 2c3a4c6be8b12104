package router

import (
	"time"

	"tablero/config"
	"tablero/internal/handler"
	"tablero/internal/middleware"
	"tablero/internal/repository"
	"tablero/internal/service"
	"tablero/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	visitRepo := repository.NewVisitRepository(db)

	feedHub := ws.NewHub()

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	notifSvc := service.NewNotificationService(notifRepo, feedHub)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, userRepo)
	notifHandler := handler.NewNotificationHandler(notifSvc)
	visitHandler := handler.NewVisitHandler(visitRepo)
	adminHandler := handler.NewAdminHandler(authSvc, userRepo, notifRepo, visitRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		user := api.Group("")
		user.Use(authMw)
		{
			user.GET("/me", authHandler.Me)
			user.GET("/notifications/active", notifHandler.GetActive)
			user.POST("/notifications/viewed", notifHandler.MarkViewed)
			user.GET("/notifications/:id/viewed", notifHandler.HasViewed)
			user.POST("/visits", visitHandler.Create)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.POST("/notifications", notifHandler.Create)
			admin.GET("/notifications", notifHandler.History)
			admin.PUT("/notifications/:id/deactivate", notifHandler.Deactivate)
			admin.POST("/notifications/deactivate-all", notifHandler.DeactivateAll)
			admin.GET("/notifications/:id/stats", notifHandler.Stats)
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.GET("/visits", adminHandler.ListVisits)
			admin.GET("/users", adminHandler.ListUsers)
			admin.POST("/users", adminHandler.CreateUser)
		}
	}

	r.GET("/ws/notifications", ws.UpgradeFeed(&cfg.JWT, feedHub))

	return r
}
