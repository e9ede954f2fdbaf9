package models

// UploadStatus is the status reported for an accepted upload.
type UploadStatus string

const UploadStatusSuccess UploadStatus = "success"

// ProcessingStatus is the status reported once a processing task is submitted.
type ProcessingStatus string

const ProcessingStatusProcessing ProcessingStatus = "processing"

// TaskResultStatus is the status a finished background task reports.
type TaskResultStatus string

const TaskResultCompleted TaskResultStatus = "completed"

// TaskState mirrors the lifecycle states the queue reports for a task.
type TaskState string

const (
	TaskStatePending   TaskState = "pending"
	TaskStateScheduled TaskState = "scheduled"
	TaskStateActive    TaskState = "active"
	TaskStateRetry     TaskState = "retry"
	TaskStateArchived  TaskState = "archived"
	TaskStateCompleted TaskState = "completed"
)

// UploadResult is returned by POST /upload.
type UploadResult struct {
	TextID string       `json:"text_id"`
	Status UploadStatus `json:"status"`
}

// ProcessingRequest is the body of POST /process.
type ProcessingRequest struct {
	TextID         string                 `json:"text_id"`
	ProcessingType string                 `json:"processing_type"`
	Parameters     map[string]interface{} `json:"parameters,omitempty"`
}

// ProcessingAck is returned by POST /process.
type ProcessingAck struct {
	TaskID string           `json:"task_id"`
	Status ProcessingStatus `json:"status"`
	TextID string           `json:"text_id"`
}

// ProcessTextPayload is what travels through the queue to the worker.
type ProcessTextPayload struct {
	TextID         string                 `json:"text_id"`
	ProcessingType string                 `json:"processing_type"`
	Parameters     map[string]interface{} `json:"parameters"`
}

// TaskResult is produced by the background task.
type TaskResult struct {
	Status TaskResultStatus `json:"status"`
	TextID string           `json:"text_id"`
}

// TaskStatus is the view of a submitted task served by GET /tasks/:task_id.
type TaskStatus struct {
	TaskID string      `json:"task_id"`
	State  TaskState   `json:"state"`
	Result *TaskResult `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}
