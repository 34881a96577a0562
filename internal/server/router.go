package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/homework-backend/internal/http/handlers"
	"github.com/yungbote/homework-backend/internal/platform/envutil"
)

type RouterConfig struct {
	HealthHandler   *handlers.HealthHandler
	HomeworkHandler *handlers.HomeworkHandler
	UserHandler     *handlers.UserHandler
	ServerHandler   *handlers.ServerHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware("homework-backend"))

	// Cors
	origins := strings.Split(envutil.Str("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173"), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthz", cfg.HealthHandler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		// Homework pipeline
		api.POST("/homework/run", cfg.HomeworkHandler.CreateRun)
		api.GET("/homework/run/:run_id", cfg.HomeworkHandler.GetRun)
		api.GET("/homework/run/:run_id/steps", cfg.HomeworkHandler.GetStepStates)
		api.GET("/homework/run/:run_id/tasks", cfg.HomeworkHandler.ListTasks)
		api.POST("/homework/run/:run_id/chat", cfg.HomeworkHandler.Chat)
		api.POST("/homework/upload", cfg.HomeworkHandler.Upload)

		// Users
		api.POST("/user", cfg.UserHandler.CreateUser)
		api.GET("/user/id/:user_id", cfg.UserHandler.GetUser)
		api.GET("/user/auth/:auth_user_id", cfg.UserHandler.GetUserByAuthUserID)

		// Game servers
		api.POST("/server", cfg.ServerHandler.CreateServer)
		api.DELETE("/server/:server_id", cfg.ServerHandler.DeleteServer)
	}

	return router
}
