// Package server assembles the HTTP router.
package server

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker-api/internal/auth"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/handlers"
	"github.com/yukikurage/task-tracker-api/internal/metrics"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/policy"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the collaborators the router needs. Suggestions is optional.
type Deps struct {
	Logger      *zap.Logger
	DB          *gorm.DB
	Tokens      *auth.TokenManager
	Revocations auth.RevocationStore
	Suggestions *services.SuggestionService
}

// NewRouter wires repositories, services and handlers into a gin engine
func NewRouter(d Deps) *gin.Engine {
	userRepo := repository.NewUserRepository(d.DB)
	taskRepo := repository.NewTaskRepository(d.DB)

	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo)
	taskService := services.NewTaskService(taskRepo, userRepo, policy.NewTaskPolicy())

	authHandler := handlers.NewAuthHandler(authService, d.Tokens, d.Revocations, d.Logger)
	userHandler := handlers.NewUserHandler(userService, d.Logger)
	taskHandler := handlers.NewTaskHandler(taskService, d.Suggestions, d.Logger)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(ginzap.Ginzap(d.Logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(d.Logger, true))
	r.Use(middleware.Metrics())

	r.GET("/health", healthHandler(d.DB, d.Logger))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Public
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)

	authed := r.Group("")
	authed.Use(middleware.RequireAuth(d.Tokens, d.Revocations, d.Logger))
	{
		authed.POST("/logout", authHandler.Logout)
		authed.GET("/me", authHandler.GetCurrentUser)
		authed.GET("/users", userHandler.ListUsers)

		tasks := authed.Group("/tasks")
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.POST("/suggest", taskHandler.SuggestTasks)
			tasks.GET("/:id", middleware.RequireTaskID(), taskHandler.GetTask)
			tasks.PUT("/:id", middleware.RequireTaskID(), taskHandler.UpdateTask)
			tasks.DELETE("/:id", middleware.RequireTaskID(), taskHandler.DeleteTask)
		}
	}

	return r
}

func healthHandler(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			log.Warn("health check failed", zap.Error(err))
			apierrors.ServiceUnavailable(c, "Database unavailable")
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
