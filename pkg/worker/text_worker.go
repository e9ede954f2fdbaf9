package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/feichai0017/text-processor/internal/models"
	"github.com/feichai0017/text-processor/internal/service/text"
	"github.com/feichai0017/text-processor/pkg/logger"
	"github.com/feichai0017/text-processor/pkg/metrics"
	"github.com/feichai0017/text-processor/pkg/queue"
)

type TextWorker struct {
	BaseWorker
	textService text.TextProcessor
	metrics     *metrics.Recorder
}

func NewTextWorker(cfg *Config, textService text.TextProcessor, recorder *metrics.Recorder, log logger.Logger) (*TextWorker, error) {
	server, err := newServer(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker server: %w", err)
	}

	w := &TextWorker{
		BaseWorker: BaseWorker{
			server: server,
			mux:    asynq.NewServeMux(),
			logger: log,
		},
		textService: textService,
		metrics:     recorder,
	}

	w.registerHandlers()
	return w, nil
}

func (w *TextWorker) registerHandlers() {
	w.mux.HandleFunc(queue.TaskTypeProcessText, w.handleProcessText)
}

func (w *TextWorker) handleProcessText(ctx context.Context, t *asynq.Task) error {
	taskID, _ := asynq.GetTaskID(ctx)

	var payload models.ProcessTextPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		w.logger.Error("Failed to unmarshal task",
			logger.String("taskId", taskID),
			logger.String("payload", string(t.Payload())),
			logger.Error(err),
		)
		w.metrics.IncTask(metrics.TaskStatusFailed)
		return fmt.Errorf("failed to unmarshal task: %v: %w", err, asynq.SkipRetry)
	}

	result, err := w.textService.HandleProcessText(ctx, taskID, &payload)
	if err != nil {
		w.logger.Error("Error processing text",
			logger.String("taskId", taskID),
			logger.String("textId", payload.TextID),
			logger.Error(err),
		)
		w.metrics.IncTask(metrics.TaskStatusFailed)
		return err
	}

	if rw := t.ResultWriter(); rw != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		if _, err := rw.Write(data); err != nil {
			w.logger.Error("Failed to write task result", logger.Error(err))
		}
	}

	w.metrics.IncTask(metrics.TaskStatusCompleted)
	return nil
}
