package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/marketlens/stockq/internal/domain"
)

// Common request/response structures

// EnqueueTaskRequest defines the payload for submitting one analysis task.
type EnqueueTaskRequest struct {
	UserID  string          `json:"user_id" validate:"required"`
	Symbol  string          `json:"symbol"  validate:"required"`
	Params  json.RawMessage `json:"params,omitempty"`
	BatchID string          `json:"batch_id,omitempty"`
}

// EnqueueTaskResponse defines the successful response for task submission.
type EnqueueTaskResponse struct {
	TaskID uuid.UUID `json:"task_id"`
	Status string    `json:"status"`
}

// CreateBatchRequest defines the payload for submitting a batch of symbols.
type CreateBatchRequest struct {
	UserID  string          `json:"user_id" validate:"required"`
	Symbols []string        `json:"symbols" validate:"required,min=1,dive,required"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// CreateBatchResponse defines the successful response for batch submission.
type CreateBatchResponse struct {
	BatchID    uuid.UUID `json:"batch_id"`
	TotalTasks int       `json:"total_tasks"`
	Status     string    `json:"status"`
}

// TaskResponse represents the response data for a task.
type TaskResponse struct {
	ID          uuid.UUID       `json:"id"`
	UserID      string          `json:"user_id"`
	Symbol      string          `json:"symbol"`
	Params      json.RawMessage `json:"params,omitempty"`
	BatchID     string          `json:"batch_id,omitempty"`
	Status      string          `json:"status"`
	WorkerID    string          `json:"worker_id,omitempty"`
	Requeues    int             `json:"requeues"`
	CreatedAt   time.Time       `json:"created_at"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	CancelledAt *time.Time      `json:"cancelled_at,omitempty"`
	RequeuedAt  *time.Time      `json:"requeued_at,omitempty"`
}

// BatchResponse represents the response data for a batch.
type BatchResponse struct {
	ID         uuid.UUID   `json:"id"`
	UserID     string      `json:"user_id"`
	Status     string      `json:"status"`
	TotalTasks int         `json:"total_tasks"`
	CreatedAt  time.Time   `json:"created_at"`
	TaskIDs    []uuid.UUID `json:"task_ids"`
}

// CancelResponse reports the outcome of a task cancellation.
type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

// CancelBatchResponse reports the outcome of a batch cancellation.
type CancelBatchResponse struct {
	TasksCancelled int `json:"tasks_cancelled"`
}

// optionalTime maps zero timestamps to nil for JSON responses.
func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// taskToResponse transforms a domain task into its response shape.
func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Symbol:      t.Symbol,
		Params:      t.Params,
		BatchID:     t.BatchID,
		Status:      string(t.Status),
		WorkerID:    t.WorkerID,
		Requeues:    t.Requeues,
		CreatedAt:   t.CreatedAt,
		EnqueuedAt:  t.EnqueuedAt,
		StartedAt:   optionalTime(t.StartedAt),
		CompletedAt: optionalTime(t.CompletedAt),
		CancelledAt: optionalTime(t.CancelledAt),
		RequeuedAt:  optionalTime(t.RequeuedAt),
	}
}

// batchToResponse transforms a domain batch into its response shape.
func batchToResponse(b *domain.Batch) BatchResponse {
	taskIDs := b.TaskIDs
	if taskIDs == nil {
		taskIDs = []uuid.UUID{}
	}
	return BatchResponse{
		ID:         b.ID,
		UserID:     b.UserID,
		Status:     string(b.Status),
		TotalTasks: b.TotalTasks,
		CreatedAt:  b.CreatedAt,
		TaskIDs:    taskIDs,
	}
}
