package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/text-processor/internal/service/text"
	"github.com/feichai0017/text-processor/pkg/logger"
)

type HealthHandler struct {
	service text.TextProcessor
	logger  logger.Logger
}

func NewHealthHandler(service text.TextProcessor, logger logger.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger,
	}
}

// Health answers as long as the process is up; no dependency is checked.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Ready checks that the task queue can be reached.
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.service.Ready(c.Request.Context()); err != nil {
		handleError(c, h.logger, "Readiness check failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
