package handlers

import (
	"net/http"

	"github.com/feichai0017/text-processor/internal/service/text"
	"github.com/feichai0017/text-processor/pkg/logger"
	"github.com/feichai0017/text-processor/pkg/metrics"
)

// Handlers bundles every HTTP handler together with the dependencies they share.
type Handlers struct {
	Text    *TextHandler
	Health  *HealthHandler
	Metrics http.Handler
}

func NewHandlers(
	textService text.TextProcessor,
	recorder *metrics.Recorder,
	logger logger.Logger,
	maxUploadBytes int64,
) *Handlers {
	return &Handlers{
		Text:    NewTextHandler(textService, logger, maxUploadBytes),
		Health:  NewHealthHandler(textService, logger),
		Metrics: recorder.Handler(),
	}
}
