package text

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/feichai0017/text-processor/internal/models"
	"github.com/feichai0017/text-processor/pkg/apperr"
	"github.com/feichai0017/text-processor/pkg/logger"
	"github.com/feichai0017/text-processor/pkg/metrics"
	"github.com/feichai0017/text-processor/pkg/queue"
)

type TextService struct {
	queue   queue.Queue
	metrics *metrics.Recorder
	logger  logger.Logger
	config  *ServiceConfig
}

type ServiceConfig struct {
	MaxFileSize int64
}

var _ TextProcessor = (*TextService)(nil)

func NewService(
	q queue.Queue,
	recorder *metrics.Recorder,
	log logger.Logger,
	cfg *ServiceConfig,
) *TextService {
	if cfg == nil {
		cfg = &ServiceConfig{
			MaxFileSize: 10 * 1024 * 1024, // 10MB
		}
	}

	return &TextService{
		queue:   q,
		metrics: recorder,
		logger:  log,
		config:  cfg,
	}
}

// Upload reads the uploaded text once, derives its id and discards the content.
// The id only encodes the text length in code points, so equal-length texts
// share an id.
func (s *TextService) Upload(ctx context.Context, content io.Reader) (*models.UploadResult, error) {
	log := logger.FromContext(ctx, s.logger)

	data, err := io.ReadAll(io.LimitReader(content, s.config.MaxFileSize+1))
	if err != nil {
		log.Error("Error uploading text", logger.Error(err))
		return nil, apperr.Wrap(apperr.KindInternal, "failed to read uploaded file", err)
	}
	if int64(len(data)) > s.config.MaxFileSize {
		log.Error("Error uploading text",
			logger.Int64("maxBytes", s.config.MaxFileSize),
			logger.String("reason", "file too large"),
		)
		return nil, apperr.New(apperr.KindTooLarge,
			fmt.Sprintf("file size exceeds maximum limit of %d bytes", s.config.MaxFileSize))
	}
	if !utf8.Valid(data) {
		log.Error("Error uploading text", logger.String("reason", "invalid utf-8"))
		return nil, apperr.New(apperr.KindInvalidInput, "file is not valid UTF-8 text")
	}

	textID := fmt.Sprintf("text_%d", utf8.RuneCount(data))

	log.Info("Text uploaded successfully", logger.String("textId", textID))
	s.metrics.IncUpload()

	return &models.UploadResult{
		TextID: textID,
		Status: models.UploadStatusSuccess,
	}, nil
}

// SubmitProcessing enqueues the background task and returns as soon as the
// broker has accepted it. Only the enqueue call is timed.
func (s *TextService) SubmitProcessing(ctx context.Context, req *models.ProcessingRequest) (*models.ProcessingAck, error) {
	log := logger.FromContext(ctx, s.logger)

	if req == nil {
		return nil, apperr.New(apperr.KindValidation, "text_id and processing_type are required")
	}

	task := &queue.Task{
		ID:   uuid.New().String(),
		Type: queue.TaskTypeProcessText,
		Payload: models.ProcessTextPayload{
			TextID:         req.TextID,
			ProcessingType: req.ProcessingType,
			Parameters:     req.Parameters,
		},
		CreatedAt: time.Now(),
	}

	var handle *queue.TaskHandle
	err := s.metrics.ObserveProcessing(func() error {
		var err error
		handle, err = s.queue.Enqueue(ctx, task)
		return err
	})
	if err != nil {
		log.Error("Error starting text processing",
			logger.String("textId", req.TextID),
			logger.Error(err),
		)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to start text processing", err)
	}

	log.Info("Text processing task created",
		logger.String("taskId", handle.ID),
		logger.String("textId", req.TextID),
		logger.String("processingType", req.ProcessingType),
	)

	return &models.ProcessingAck{
		TaskID: handle.ID,
		Status: models.ProcessingStatusProcessing,
		TextID: req.TextID,
	}, nil
}

func (s *TextService) GetTaskStatus(ctx context.Context, taskID string) (*models.TaskStatus, error) {
	if taskID == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "task id is required")
	}

	status, err := s.queue.GetTaskStatus(ctx, taskID)
	if err != nil {
		if errors.Is(err, queue.ErrTaskNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, "task not found", err)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to get task status", err)
	}
	return status, nil
}

// Ready reports whether the broker and result backend are reachable.
func (s *TextService) Ready(ctx context.Context) error {
	if err := s.queue.Ping(ctx); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "task queue unavailable", err)
	}
	return nil
}

// HandleProcessText is the body of the background task. It does no real
// processing yet: it logs the request and reports completion.
func (s *TextService) HandleProcessText(ctx context.Context, taskID string, payload *models.ProcessTextPayload) (*models.TaskResult, error) {
	if payload == nil {
		s.logger.Error("Error processing text",
			logger.String("taskId", taskID),
			logger.String("reason", "missing payload"),
		)
		return nil, fmt.Errorf("invalid task data: missing payload")
	}

	s.logger.Info("Processing text",
		logger.String("taskId", taskID),
		logger.String("textId", payload.TextID),
		logger.String("processingType", payload.ProcessingType),
		logger.Any("parameters", payload.Parameters),
	)

	result := &models.TaskResult{
		Status: models.TaskResultCompleted,
		TextID: payload.TextID,
	}

	if err := s.queue.SaveResult(ctx, taskID, result); err != nil {
		s.logger.Error("Failed to save task result",
			logger.String("taskId", taskID),
			logger.Error(err),
		)
	}

	return result, nil
}
