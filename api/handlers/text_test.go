package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/text-processor/internal/models"
	"github.com/feichai0017/text-processor/pkg/apperr"
	"github.com/feichai0017/text-processor/pkg/logger"
	"github.com/feichai0017/text-processor/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockTextService is a mock implementation of text.TextProcessor for testing
type MockTextService struct {
	UploadFn            func(ctx context.Context, content io.Reader) (*models.UploadResult, error)
	SubmitProcessingFn  func(ctx context.Context, req *models.ProcessingRequest) (*models.ProcessingAck, error)
	GetTaskStatusFn     func(ctx context.Context, taskID string) (*models.TaskStatus, error)
	ReadyFn             func(ctx context.Context) error
	HandleProcessTextFn func(ctx context.Context, taskID string, payload *models.ProcessTextPayload) (*models.TaskResult, error)
}

func (m *MockTextService) Upload(ctx context.Context, content io.Reader) (*models.UploadResult, error) {
	if m.UploadFn != nil {
		return m.UploadFn(ctx, content)
	}
	return nil, nil
}

func (m *MockTextService) SubmitProcessing(ctx context.Context, req *models.ProcessingRequest) (*models.ProcessingAck, error) {
	if m.SubmitProcessingFn != nil {
		return m.SubmitProcessingFn(ctx, req)
	}
	return nil, nil
}

func (m *MockTextService) GetTaskStatus(ctx context.Context, taskID string) (*models.TaskStatus, error) {
	if m.GetTaskStatusFn != nil {
		return m.GetTaskStatusFn(ctx, taskID)
	}
	return nil, nil
}

func (m *MockTextService) Ready(ctx context.Context) error {
	if m.ReadyFn != nil {
		return m.ReadyFn(ctx)
	}
	return nil
}

func (m *MockTextService) HandleProcessText(ctx context.Context, taskID string, payload *models.ProcessTextPayload) (*models.TaskResult, error) {
	if m.HandleProcessTextFn != nil {
		return m.HandleProcessTextFn(ctx, taskID, payload)
	}
	return nil, nil
}

func newTestEngine(svc *MockTextService, log logger.Logger) *gin.Engine {
	return newTestEngineWithLimit(svc, log, 10<<20)
}

func newTestEngineWithLimit(svc *MockTextService, log logger.Logger, maxUploadBytes int64) *gin.Engine {
	h := NewHandlers(svc, metrics.NewRecorder(), log, maxUploadBytes)
	r := gin.New()
	r.POST("/upload", h.Text.Upload)
	r.POST("/process", h.Text.Process)
	r.GET("/tasks/:task_id", h.Text.TaskStatus)
	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	return r
}

func multipartBody(t *testing.T, field string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, "test.txt")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Detail
}

func TestTextHandler_Upload(t *testing.T) {
	tests := []struct {
		name           string
		field          string
		uploadFn       func(ctx context.Context, content io.Reader) (*models.UploadResult, error)
		expectedStatus int
		expectedBody   string
		expectedDetail string
	}{
		{
			name:  "success",
			field: "file",
			uploadFn: func(ctx context.Context, content io.Reader) (*models.UploadResult, error) {
				data, err := io.ReadAll(content)
				if err != nil {
					return nil, err
				}
				assert.Equal(t, "hello", string(data))
				return &models.UploadResult{TextID: "text_5", Status: models.UploadStatusSuccess}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"text_id":"text_5","status":"success"}`,
		},
		{
			name:           "missing file field",
			field:          "document",
			expectedStatus: http.StatusUnprocessableEntity,
			expectedDetail: "field 'file' is required",
		},
		{
			name:  "invalid encoding",
			field: "file",
			uploadFn: func(ctx context.Context, content io.Reader) (*models.UploadResult, error) {
				return nil, apperr.New(apperr.KindInvalidInput, "file is not valid UTF-8 text")
			},
			expectedStatus: http.StatusBadRequest,
			expectedDetail: "file is not valid UTF-8 text",
		},
		{
			name:  "unexpected failure",
			field: "file",
			uploadFn: func(ctx context.Context, content io.Reader) (*models.UploadResult, error) {
				return nil, errors.New("disk on fire")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedDetail: "disk on fire",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logger.NewTestLogger()
			r := newTestEngine(&MockTextService{UploadFn: tt.uploadFn}, log)

			body, contentType := multipartBody(t, tt.field, []byte("hello"))
			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, rec.Body.String())
			}
			if tt.expectedDetail != "" {
				assert.Contains(t, decodeDetail(t, rec), tt.expectedDetail)
				assert.NotEmpty(t, log.GetEntries(), "errors are logged before they are returned")
			}
		})
	}
}

func TestTextHandler_UploadBodyLimit(t *testing.T) {
	called := false
	svc := &MockTextService{
		UploadFn: func(ctx context.Context, content io.Reader) (*models.UploadResult, error) {
			called = true
			return &models.UploadResult{TextID: "text_0", Status: models.UploadStatusSuccess}, nil
		},
	}
	r := newTestEngineWithLimit(svc, logger.NewTestLogger(), 16)

	body, contentType := multipartBody(t, "file", bytes.Repeat([]byte("a"), 2*multipartOverhead))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "file size exceeds maximum limit of 16 bytes", strings.SplitN(decodeDetail(t, rec), ":", 2)[0])
	assert.False(t, called)
}

func TestTextHandler_Process(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		submitFn       func(ctx context.Context, req *models.ProcessingRequest) (*models.ProcessingAck, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success",
			body: `{"text_id":"text_5","processing_type":"test","parameters":{"option1":"value1"}}`,
			submitFn: func(ctx context.Context, req *models.ProcessingRequest) (*models.ProcessingAck, error) {
				assert.Equal(t, "text_5", req.TextID)
				assert.Equal(t, "test", req.ProcessingType)
				assert.Equal(t, map[string]interface{}{"option1": "value1"}, req.Parameters)
				return &models.ProcessingAck{TaskID: "task-1", Status: models.ProcessingStatusProcessing, TextID: req.TextID}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"task_id":"task-1","status":"processing","text_id":"text_5"}`,
		},
		{
			name: "empty strings are accepted",
			body: `{"text_id":"","processing_type":""}`,
			submitFn: func(ctx context.Context, req *models.ProcessingRequest) (*models.ProcessingAck, error) {
				assert.Equal(t, "", req.TextID)
				assert.Equal(t, "", req.ProcessingType)
				return &models.ProcessingAck{TaskID: "task-2", Status: models.ProcessingStatusProcessing, TextID: req.TextID}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"task_id":"task-2","status":"processing","text_id":""}`,
		},
		{
			name:           "missing processing type",
			body:           `{"text_id":"text_5"}`,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "null text id",
			body:           `{"text_id":null,"processing_type":"test"}`,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "text id of the wrong type",
			body:           `{"text_id":5,"processing_type":"test"}`,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "malformed json",
			body:           `{"text_id":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "enqueue failure",
			body: `{"text_id":"text_5","processing_type":"test"}`,
			submitFn: func(ctx context.Context, req *models.ProcessingRequest) (*models.ProcessingAck, error) {
				return nil, apperr.Wrap(apperr.KindInternal, "failed to start text processing", errors.New("connection refused"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"detail":"failed to start text processing: connection refused"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &MockTextService{
				SubmitProcessingFn: func(ctx context.Context, req *models.ProcessingRequest) (*models.ProcessingAck, error) {
					called = true
					return tt.submitFn(ctx, req)
				},
			}
			r := newTestEngine(svc, logger.NewTestLogger())

			req := httptest.NewRequest(http.MethodPost, "/process", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.submitFn != nil, called)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, rec.Body.String())
			}
		})
	}
}

func TestTextHandler_TaskStatus(t *testing.T) {
	svc := &MockTextService{
		GetTaskStatusFn: func(ctx context.Context, taskID string) (*models.TaskStatus, error) {
			if taskID == "task-1" {
				return &models.TaskStatus{
					TaskID: taskID,
					State:  models.TaskStateCompleted,
					Result: &models.TaskResult{Status: models.TaskResultCompleted, TextID: "text_5"},
				}, nil
			}
			return nil, apperr.New(apperr.KindNotFound, "task not found")
		},
	}
	r := newTestEngine(svc, logger.NewTestLogger())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks/task-1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"task_id":"task-1","state":"completed","result":{"status":"completed","text_id":"text_5"}}`,
		rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "task not found", decodeDetail(t, rec))
}

func TestHealthHandler(t *testing.T) {
	svc := &MockTextService{
		ReadyFn: func(ctx context.Context) error {
			return apperr.Wrap(apperr.KindUnavailable, "task queue unavailable", errors.New("broker unreachable"))
		},
	}
	r := newTestEngine(svc, logger.NewTestLogger())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, decodeDetail(t, rec), "task queue unavailable")

	svc.ReadyFn = nil
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}
