package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/text-processor/api/handlers"
	"github.com/feichai0017/text-processor/api/middleware"
	"github.com/feichai0017/text-processor/pkg/logger"
)

// SetupRoutes registers the middleware chain and every route.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, allowedOrigins []string, log logger.Logger) {
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(allowedOrigins))

	r.POST("/upload", h.Text.Upload)
	r.POST("/process", h.Text.Process)
	r.GET("/tasks/:task_id", h.Text.TaskStatus)

	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	r.GET("/metrics", gin.WrapH(h.Metrics))
}
