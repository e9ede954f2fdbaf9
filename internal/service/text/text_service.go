package text

import (
	"context"
	"io"

	"github.com/feichai0017/text-processor/internal/models"
)

// TextProcessor is the behaviour the HTTP layer and the worker depend on.
type TextProcessor interface {
	Upload(ctx context.Context, content io.Reader) (*models.UploadResult, error)
	SubmitProcessing(ctx context.Context, req *models.ProcessingRequest) (*models.ProcessingAck, error)
	GetTaskStatus(ctx context.Context, taskID string) (*models.TaskStatus, error)
	Ready(ctx context.Context) error
	HandleProcessText(ctx context.Context, taskID string, payload *models.ProcessTextPayload) (*models.TaskResult, error)
}
