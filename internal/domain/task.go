package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusQueued     TaskStatus = "queued"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Terminal reports whether the status is a final state. Terminal tasks
// never transition again; acks and cancels against them are no-ops.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return true
	}
	return false
}

// IsValid checks if the status is one of the defined values
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusQueued, TaskStatusProcessing, TaskStatusCompleted,
		TaskStatusFailed, TaskStatusCancelled:
		return true
	}
	return false
}

// Task represents one unit of analysis work submitted for asynchronous
// execution. Status transitions are monotonic except processing→queued,
// which happens at most once per visibility-timeout cycle when the Reaper
// reclaims an orphaned task.
type Task struct {
	ID       uuid.UUID       `json:"id"`
	UserID   string          `json:"user_id"`
	Symbol   string          `json:"symbol"`
	Params   json.RawMessage `json:"params,omitempty"`
	BatchID  string          `json:"batch_id,omitempty"`
	Status   TaskStatus      `json:"status"`
	WorkerID string          `json:"worker_id,omitempty"`

	// Requeues counts visibility-timeout reclaims over the task's lifetime.
	Requeues int `json:"requeues,omitempty"`

	// Zero-valued timestamps mean the corresponding transition has not
	// happened yet. Each is set exactly once per transition.
	CreatedAt   time.Time `json:"created_at"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	CancelledAt time.Time `json:"cancelled_at"`
	RequeuedAt  time.Time `json:"requeued_at"`
}

// NewTask creates a queued Task for the given user and symbol.
// It generates a new UUID, stamps creation/enqueue times, and validates
// the required fields. Returns an error if validation fails.
func NewTask(userID, symbol string, params json.RawMessage, batchID string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:         uuid.New(),
		UserID:     userID,
		Symbol:     symbol,
		Params:     params,
		BatchID:    batchID,
		Status:     TaskStatusQueued,
		CreatedAt:  now,
		EnqueuedAt: now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks that the task's required fields are present and
// its status is a defined value.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.UserID == "" {
		return ErrEmptyUserID
	}
	if t.Symbol == "" {
		return ErrEmptySymbol
	}
	if !t.Status.IsValid() {
		return ErrInvalidTaskStatus
	}
	return nil
}
