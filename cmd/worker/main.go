package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/text-processor/config"
	"github.com/feichai0017/text-processor/internal/service/text"
	"github.com/feichai0017/text-processor/pkg/logger"
	"github.com/feichai0017/text-processor/pkg/metrics"
	"github.com/feichai0017/text-processor/pkg/queue"
	"github.com/feichai0017/text-processor/pkg/worker"
)

func main() {
	cfg, err := config.Get()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(
		logger.WithLevel(cfg.LogLevel),
		logger.WithEncoding(cfg.LogEncoding),
		logger.WithOutputPaths([]string{"stdout", filepath.Join(cfg.LogDir, "worker.log")}),
		logger.WithErrorPaths([]string{filepath.Join(cfg.LogDir, "worker-error.log")}),
		logger.WithInitialFields(map[string]interface{}{"service": "text-worker"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	q, err := queue.NewAsynqQueue(queue.Config{
		BrokerURL:        cfg.BrokerURL,
		ResultBackendURL: cfg.ResultBackendURL,
		MaxRetries:       cfg.TaskMaxRetry,
		ResultTTL:        cfg.ResultTTL,
	})
	if err != nil {
		log.Error("Failed to create task queue", logger.Error(err))
		os.Exit(1)
	}
	defer q.Close()

	recorder := metrics.NewRecorder()
	textService := text.NewService(q, recorder, log, nil)

	textWorker, err := worker.NewTextWorker(&worker.Config{
		BrokerURL:   cfg.BrokerURL,
		Concurrency: cfg.WorkerConcurrency,
		Queues:      map[string]int{queue.DefaultQueueName: 1},
	}, textService, recorder, log)
	if err != nil {
		log.Error("Failed to create text worker", logger.Error(err))
		os.Exit(1)
	}

	metricsSrv := &http.Server{
		Addr:              cfg.WorkerMetricsAddr,
		Handler:           recorder.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := textWorker.Start(); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}
	log.Info("Worker started", logger.Int("concurrency", cfg.WorkerConcurrency))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Worker metrics listening", logger.String("addr", cfg.WorkerMetricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	log.Info("Shutting down worker...")
	textWorker.Stop()
	log.Info("Worker stopped")

	if err != nil {
		log.Error("Worker stopped with error", logger.Error(err))
		os.Exit(1)
	}
}
