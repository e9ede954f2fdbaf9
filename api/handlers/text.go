package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/feichai0017/text-processor/internal/models"
	"github.com/feichai0017/text-processor/internal/service/text"
	"github.com/feichai0017/text-processor/pkg/apperr"
	"github.com/feichai0017/text-processor/pkg/logger"
)

// processBody is the wire form of models.ProcessingRequest. The pointers make
// "required" mean present and not null, so empty strings are accepted.
type processBody struct {
	TextID         *string                `json:"text_id" binding:"required"`
	ProcessingType *string                `json:"processing_type" binding:"required"`
	Parameters     map[string]interface{} `json:"parameters"`
}

// multipartOverhead is the slack allowed on top of the file size for the
// multipart boundaries and part headers.
const multipartOverhead = 1 << 20

type TextHandler struct {
	service        text.TextProcessor
	logger         logger.Logger
	maxUploadBytes int64
}

// NewTextHandler builds the text handlers. A maxUploadBytes of zero leaves the
// request body unbounded.
func NewTextHandler(service text.TextProcessor, logger logger.Logger, maxUploadBytes int64) *TextHandler {
	return &TextHandler{
		service:        service,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// Upload accepts a text file in the multipart field "file".
func (h *TextHandler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handleError(c, h.logger, "Invalid file upload", apperr.Wrap(apperr.KindTooLarge,
				fmt.Sprintf("file size exceeds maximum limit of %d bytes", h.maxUploadBytes), err))
			return
		}
		handleError(c, h.logger, "Invalid file upload",
			apperr.Wrap(apperr.KindValidation, "field 'file' is required", err))
		return
	}

	file, err := header.Open()
	if err != nil {
		handleError(c, h.logger, "Invalid file upload",
			apperr.Wrap(apperr.KindInternal, "failed to open uploaded file", err))
		return
	}
	defer file.Close()

	result, err := h.service.Upload(c.Request.Context(), file)
	if err != nil {
		handleError(c, h.logger, "Failed to upload text", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Process submits a processing task and answers without waiting for it.
func (h *TextHandler) Process(c *gin.Context) {
	var body processBody
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, h.logger, "Invalid processing request", bindError(err))
		return
	}

	ack, err := h.service.SubmitProcessing(c.Request.Context(), &models.ProcessingRequest{
		TextID:         *body.TextID,
		ProcessingType: *body.ProcessingType,
		Parameters:     body.Parameters,
	})
	if err != nil {
		handleError(c, h.logger, "Failed to start text processing", err)
		return
	}

	c.JSON(http.StatusOK, ack)
}

// TaskStatus reports what the queue knows about a submitted task.
func (h *TextHandler) TaskStatus(c *gin.Context) {
	status, err := h.service.GetTaskStatus(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		handleError(c, h.logger, "Failed to get task status", err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// bindError separates missing, null or mistyped fields from bodies that are
// not valid JSON.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &verrs) || errors.As(err, &typeErr) {
		return apperr.Wrap(apperr.KindValidation, "invalid request body", err)
	}
	return apperr.Wrap(apperr.KindInvalidInput, "malformed request body", err)
}
