package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Task outcome labels for TasksTotal.
const (
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

// Recorder owns a registry and the instruments registered on it. One Recorder
// is built per process and handed to the components that record into it.
type Recorder struct {
	registry *prometheus.Registry

	// UploadTotal counts successful uploads.
	UploadTotal prometheus.Counter
	// ProcessingSeconds measures how long submitting a processing task takes.
	ProcessingSeconds prometheus.Histogram
	// TasksTotal counts executed background tasks by outcome.
	TasksTotal *prometheus.CounterVec
}

// NewRecorder builds a Recorder backed by a fresh registry that also carries
// the Go runtime and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		UploadTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "text_upload_total",
			Help: "Total number of text uploads",
		}),
		ProcessingSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "text_processing_seconds",
			Help:    "Time spent processing text",
			Buckets: prometheus.DefBuckets,
		}),
		TasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "text_tasks_total",
			Help: "Background text tasks executed, by outcome",
		}, []string{"status"}),
	}

	r.registry.MustRegister(
		r.UploadTotal,
		r.ProcessingSeconds,
		r.TasksTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// IncUpload records one successful upload.
func (r *Recorder) IncUpload() {
	r.UploadTotal.Inc()
}

// ObserveProcessing runs fn and records its duration, whether or not it fails.
func (r *Recorder) ObserveProcessing(fn func() error) error {
	start := time.Now()
	defer func() {
		r.ProcessingSeconds.Observe(time.Since(start).Seconds())
	}()
	return fn()
}

// IncTask records one executed background task with the given outcome.
func (r *Recorder) IncTask(status string) {
	r.TasksTotal.WithLabelValues(status).Inc()
}

// Registry exposes the underlying registry, mostly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		Registry: r.registry,
	})
}
