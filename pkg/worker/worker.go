package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"github.com/feichai0017/text-processor/pkg/logger"
)

type Worker interface {
	Start() error
	Stop() error
}

type Config struct {
	BrokerURL   string
	Concurrency int
	Queues      map[string]int
}

type BaseWorker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger logger.Logger
}

// newServer builds the asynq server; retries back off linearly by minute.
func newServer(cfg *Config, log logger.Logger) (*asynq.Server, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.BrokerURL)
	if err != nil {
		return nil, err
	}
	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      cfg.Queues,
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			return time.Duration(n+1) * time.Minute
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			log.Error("Task failed",
				logger.String("type", task.Type()),
				logger.Int("retried", retried),
				logger.Int("maxRetry", maxRetry),
				logger.Error(err),
			)
		}),
		Logger:   newAsynqLogger(log),
		LogLevel: asynq.InfoLevel,
	}), nil
}

// Start begins pulling tasks in the background and returns once the server is up.
func (w *BaseWorker) Start() error {
	return w.server.Start(w.mux)
}

// Stop stops fetching new tasks and blocks until the active ones have
// finished or the shutdown timeout has passed.
func (w *BaseWorker) Stop() error {
	w.server.Shutdown()
	return nil
}
