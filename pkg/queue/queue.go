package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/feichai0017/text-processor/internal/models"
)

// Task types
const (
	TaskTypeProcessText = "text:process"
)

const DefaultQueueName = "default"

// ErrTaskNotFound is returned when neither the result backend nor the broker
// knows a task id.
var ErrTaskNotFound = errors.New("task not found")

// Queue is the submission side of the task runner.
type Queue interface {
	Enqueue(ctx context.Context, task *Task) (*TaskHandle, error)
	GetTaskStatus(ctx context.Context, taskID string) (*models.TaskStatus, error)
	SaveResult(ctx context.Context, taskID string, result *models.TaskResult) error
	Ping(ctx context.Context) error
	Close() error
}

// Task is a named job and its JSON-serialisable arguments.
type Task struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	CreatedAt time.Time   `json:"createdAt"`
}

// TaskHandle identifies a submitted task.
type TaskHandle struct {
	ID    string
	Queue string
}

// Config defines queue configuration
type Config struct {
	BrokerURL        string
	ResultBackendURL string
	QueueName        string
	MaxRetries       int
	ProcessTimeout   time.Duration
	ResultTTL        time.Duration
}

// AsynqQueue implements Queue on top of asynq, with results kept in a
// separate redis result backend.
type AsynqQueue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	broker    redis.UniversalClient
	results   *redis.Client
	cfg       Config
}

// NewAsynqQueue parses the broker and backend URLs and builds the clients.
// No connection is made until the first call.
func NewAsynqQueue(cfg Config) (*AsynqQueue, error) {
	if cfg.QueueName == "" {
		cfg.QueueName = DefaultQueueName
	}
	if cfg.ProcessTimeout == 0 {
		cfg.ProcessTimeout = 30 * time.Minute
	}
	if cfg.ResultTTL == 0 {
		cfg.ResultTTL = 24 * time.Hour
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.BrokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid broker url: %w", err)
	}
	backendOpt, err := redis.ParseURL(cfg.ResultBackendURL)
	if err != nil {
		return nil, fmt.Errorf("invalid result backend url: %w", err)
	}
	broker, ok := redisOpt.MakeRedisClient().(redis.UniversalClient)
	if !ok {
		return nil, fmt.Errorf("unsupported broker connection type %T", redisOpt)
	}

	return &AsynqQueue{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		broker:    broker,
		results:   redis.NewClient(backendOpt),
		cfg:       cfg,
	}, nil
}

// Enqueue submits the task and returns its handle without waiting for it to run.
func (q *AsynqQueue) Enqueue(ctx context.Context, task *Task) (*TaskHandle, error) {
	payload, err := json.Marshal(task.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}

	t := asynq.NewTask(task.Type, payload, q.taskOptions(task)...)
	info, err := q.client.EnqueueContext(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	task.ID = info.ID
	return &TaskHandle{ID: info.ID, Queue: info.Queue}, nil
}

func (q *AsynqQueue) taskOptions(task *Task) []asynq.Option {
	opts := []asynq.Option{
		asynq.Queue(q.cfg.QueueName),
		asynq.MaxRetry(q.cfg.MaxRetries),
		asynq.Timeout(q.cfg.ProcessTimeout),
		asynq.Retention(q.cfg.ResultTTL),
	}
	if task.ID != "" {
		opts = append(opts, asynq.TaskID(task.ID))
	}
	return opts
}

// GetTaskStatus looks the task up in the result backend first and falls back
// to the broker's view of it.
func (q *AsynqQueue) GetTaskStatus(ctx context.Context, taskID string) (*models.TaskStatus, error) {
	data, err := q.results.Get(ctx, resultKey(taskID)).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get result from backend: %w", err)
	}
	if err == nil {
		var result models.TaskResult
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
		return &models.TaskStatus{
			TaskID: taskID,
			State:  models.TaskStateCompleted,
			Result: &result,
		}, nil
	}

	info, err := q.inspector.GetTaskInfo(q.cfg.QueueName, taskID)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to inspect task: %w", err)
	}
	return convertTaskInfo(info), nil
}

// SaveResult stores a finished task's result with the configured TTL.
func (q *AsynqQueue) SaveResult(ctx context.Context, taskID string, result *models.TaskResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := q.results.Set(ctx, resultKey(taskID), data, q.cfg.ResultTTL).Err(); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// Ping checks that both the broker and the result backend answer.
func (q *AsynqQueue) Ping(ctx context.Context) error {
	if err := q.broker.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("broker unreachable: %w", err)
	}
	if err := q.results.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("result backend unreachable: %w", err)
	}
	return nil
}

func (q *AsynqQueue) Close() error {
	return errors.Join(
		q.client.Close(),
		q.inspector.Close(),
		q.broker.Close(),
		q.results.Close(),
	)
}

func resultKey(taskID string) string {
	return fmt.Sprintf("text_result:%s", taskID)
}

// convertTaskInfo maps asynq's view of a task to a TaskStatus.
func convertTaskInfo(info *asynq.TaskInfo) *models.TaskStatus {
	status := &models.TaskStatus{TaskID: info.ID}

	switch info.State {
	case asynq.TaskStateActive:
		status.State = models.TaskStateActive
	case asynq.TaskStateScheduled:
		status.State = models.TaskStateScheduled
	case asynq.TaskStateRetry:
		status.State = models.TaskStateRetry
		status.Error = info.LastErr
	case asynq.TaskStateArchived:
		status.State = models.TaskStateArchived
		status.Error = info.LastErr
	case asynq.TaskStateCompleted:
		status.State = models.TaskStateCompleted
		if len(info.Result) > 0 {
			var result models.TaskResult
			if err := json.Unmarshal(info.Result, &result); err == nil {
				status.Result = &result
			}
		}
	default:
		status.State = models.TaskStatePending
	}

	return status
}
