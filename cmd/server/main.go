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

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/text-processor/api/handlers"
	"github.com/feichai0017/text-processor/api/routes"
	"github.com/feichai0017/text-processor/config"
	"github.com/feichai0017/text-processor/internal/service/text"
	"github.com/feichai0017/text-processor/pkg/logger"
	"github.com/feichai0017/text-processor/pkg/metrics"
	"github.com/feichai0017/text-processor/pkg/queue"
)

func main() {
	cfg, err := config.Get()
	if err != nil {
		panic(err)
	}

	// init logger
	log, err := logger.NewLogger(
		logger.WithLevel(cfg.LogLevel),
		logger.WithEncoding(cfg.LogEncoding),
		logger.WithOutputPaths([]string{"stdout", filepath.Join(cfg.LogDir, "app.log")}),
		logger.WithErrorPaths([]string{filepath.Join(cfg.LogDir, "error.log")}),
		logger.WithInitialFields(map[string]interface{}{"service": "text-api"}),
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
		log.Fatal("Failed to create task queue", logger.Error(err))
	}
	defer q.Close()

	recorder := metrics.NewRecorder()
	textService := text.NewService(q, recorder, log, &text.ServiceConfig{
		MaxFileSize: cfg.MaxUploadBytes,
	})

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = cfg.MaxUploadBytes
	routes.SetupRoutes(r, handlers.NewHandlers(textService, recorder, log, cfg.MaxUploadBytes), cfg.AllowedOrigins, log)

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", logger.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", logger.Error(err))
		os.Exit(1)
	}
	log.Info("Server stopped")
}
