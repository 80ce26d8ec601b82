package domain

import (
	"time"

	"github.com/google/uuid"
)

// BatchStatus represents the aggregate state of a batch
type BatchStatus string

// Possible batch status values
const (
	BatchStatusQueued    BatchStatus = "queued"
	BatchStatusCancelled BatchStatus = "cancelled"
)

// Batch represents a named group of tasks submitted together.
// TotalTasks is fixed at creation. TaskIDs is populated on read from the
// batch's member set; the references are weak: tasks remain independently
// queryable and deleting a batch never cascades to its tasks.
type Batch struct {
	ID         uuid.UUID   `json:"id"`
	UserID     string      `json:"user_id"`
	Status     BatchStatus `json:"status"`
	TotalTasks int         `json:"total_tasks"`
	CreatedAt  time.Time   `json:"created_at"`

	TaskIDs []uuid.UUID `json:"task_ids,omitempty"`
}

// NewBatch creates a queued Batch for the given user covering total tasks.
func NewBatch(userID string, total int) (*Batch, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if total <= 0 {
		return nil, ErrNoSymbols
	}
	return &Batch{
		ID:         uuid.New(),
		UserID:     userID,
		Status:     BatchStatusQueued,
		TotalTasks: total,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
