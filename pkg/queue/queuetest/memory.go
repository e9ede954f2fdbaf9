// Package queuetest provides an in-memory queue.Queue for tests.
package queuetest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/feichai0017/text-processor/internal/models"
	"github.com/feichai0017/text-processor/pkg/queue"
)

// MemoryQueue records enqueued tasks and saved results. Set the Err fields to
// make the corresponding call fail.
type MemoryQueue struct {
	mu      sync.Mutex
	tasks   []*queue.Task
	results map[string]*models.TaskResult

	EnqueueErr error
	SaveErr    error
	PingErr    error
}

var _ queue.Queue = (*MemoryQueue)(nil)

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{results: make(map[string]*models.TaskResult)}
}

func (q *MemoryQueue) Enqueue(_ context.Context, task *queue.Task) (*queue.TaskHandle, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.EnqueueErr != nil {
		return nil, q.EnqueueErr
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	q.tasks = append(q.tasks, task)
	return &queue.TaskHandle{ID: task.ID, Queue: queue.DefaultQueueName}, nil
}

func (q *MemoryQueue) GetTaskStatus(_ context.Context, taskID string) (*models.TaskStatus, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if result, ok := q.results[taskID]; ok {
		return &models.TaskStatus{TaskID: taskID, State: models.TaskStateCompleted, Result: result}, nil
	}
	for _, t := range q.tasks {
		if t.ID == taskID {
			return &models.TaskStatus{TaskID: taskID, State: models.TaskStatePending}, nil
		}
	}
	return nil, queue.ErrTaskNotFound
}

func (q *MemoryQueue) SaveResult(_ context.Context, taskID string, result *models.TaskResult) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.SaveErr != nil {
		return q.SaveErr
	}
	q.results[taskID] = result
	return nil
}

func (q *MemoryQueue) Ping(context.Context) error {
	return q.PingErr
}

func (q *MemoryQueue) Close() error { return nil }

// Tasks returns the enqueued tasks in submission order.
func (q *MemoryQueue) Tasks() []*queue.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*queue.Task, len(q.tasks))
	copy(out, q.tasks)
	return out
}

// Result returns the saved result for taskID, if any.
func (q *MemoryQueue) Result(taskID string) (*models.TaskResult, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	r, ok := q.results[taskID]
	return r, ok
}
