package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/text-processor/pkg/apperr"
	"github.com/feichai0017/text-processor/pkg/logger"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// handleError logs err and answers with the status its kind maps to.
func handleError(c *gin.Context, log logger.Logger, message string, err error) {
	status := apperr.StatusCode(err)
	logger.FromContext(c.Request.Context(), log).Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Int("status", status),
		logger.String("kind", apperr.KindOf(err).String()),
		logger.Error(err),
	)

	c.AbortWithStatusJSON(status, ErrorResponse{Detail: err.Error()})
}
