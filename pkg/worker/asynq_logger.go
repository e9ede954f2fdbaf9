package worker

import (
	"fmt"

	"github.com/feichai0017/text-processor/pkg/logger"
)

// asynqLogger routes asynq's internal logging into our logger.
type asynqLogger struct {
	log logger.Logger
}

func newAsynqLogger(log logger.Logger) *asynqLogger {
	return &asynqLogger{log: log.Named("asynq")}
}

func (l *asynqLogger) Debug(args ...interface{}) { l.log.Debug(fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...interface{})  { l.log.Info(fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...interface{})  { l.log.Warn(fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
func (l *asynqLogger) Fatal(args ...interface{}) { l.log.Fatal(fmt.Sprint(args...)) }
