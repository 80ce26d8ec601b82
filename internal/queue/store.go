package queue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/marketlens/stockq/internal/domain"
)

// ClaimStatus is the outcome of an atomic claim attempt on a popped task.
type ClaimStatus int

// Possible claim outcomes
const (
	// ClaimOK means the task was transitioned to processing and leased.
	ClaimOK ClaimStatus = iota

	// ClaimDenied means a concurrency ceiling blocked the claim; the
	// dispatcher must return the task to the ready queue.
	ClaimDenied

	// ClaimMissing means no task record exists for the popped ID.
	ClaimMissing

	// ClaimStale means the task is no longer in the queued state (for
	// example cancelled between pop and claim); the dispatcher drops it.
	ClaimStale
)

// Stats holds the queue-depth counters reported for monitoring.
type Stats struct {
	Queued     int64 `json:"queued"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
}

// Store is the coordination boundary of the queue. Implementations persist
// task and batch records, the ready list, the per-user and global processing
// sets, and the visibility leases.
//
// Three operations are required to be atomic with respect to concurrent
// callers: CreateBatchTasks (all-or-nothing batch submission), Claim
// (admission re-check + processing-set insert + lease arm), and Release
// (processing-set removal + lease clear + terminal transition). Everything
// else is a single read or write.
type Store interface {
	// SaveTask writes a task record. The record must be readable by
	// GetTask before SaveTask returns.
	SaveTask(ctx context.Context, t *domain.Task) error

	// GetTask loads a task record, or domain.ErrTaskNotFound.
	GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// SaveBatch writes a batch record.
	SaveBatch(ctx context.Context, b *domain.Batch) error

	// GetBatch loads a batch record with its member task IDs populated,
	// or domain.ErrBatchNotFound.
	GetBatch(ctx context.Context, id uuid.UUID) (*domain.Batch, error)

	// PushReady appends a task ID to the tail of the ready queue.
	PushReady(ctx context.Context, id uuid.UUID) error

	// PushBack returns a task ID to the ready queue after a denied
	// claim. Position relative to other tasks is not guaranteed.
	PushBack(ctx context.Context, id uuid.UUID) error

	// PopReady removes and returns the head of the ready queue.
	// The second return is false when the queue is empty.
	PopReady(ctx context.Context) (uuid.UUID, bool, error)

	// AddBatchMember registers a task ID in a batch's member set.
	AddBatchMember(ctx context.Context, batchID, taskID uuid.UUID) error

	// CreateBatchTasks writes every task record, appends every ID to the
	// ready queue, and registers every ID in the batch member set as one
	// atomic unit: on error none of the writes are observable.
	CreateBatchTasks(ctx context.Context, b *domain.Batch, tasks []*domain.Task) error

	// Claim atomically verifies the task is still queued and both
	// processing sets are under their limits, then inserts the task into
	// the per-user and global processing sets, marks it processing for
	// workerID with StartedAt=now, and arms a visibility lease expiring
	// at timeoutAt.
	Claim(ctx context.Context, id uuid.UUID, userID, workerID string, userLimit, globalLimit int, now, timeoutAt time.Time) (ClaimStatus, error)

	// Release atomically removes a processing task from both processing
	// sets, clears its lease, and transitions it to the given terminal
	// status, stamping CompletedAt or CancelledAt with now. Returns
	// false without mutating anything when the task is not processing.
	Release(ctx context.Context, id uuid.UUID, userID string, to domain.TaskStatus, now time.Time) (bool, error)

	// CancelQueued transitions a queued task to cancelled and removes it
	// from the ready queue (best-effort scan). Returns false when the
	// task is not queued.
	CancelQueued(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)

	// RequeueExpired atomically returns an orphaned processing task to
	// the ready queue: removes it from both processing sets, clears its
	// lease, sets status queued with RequeuedAt=now, and increments the
	// requeue counter. Returns false when the task is not processing or
	// when its lease is no longer expired at now, so concurrent reapers
	// cannot tear down a lease a worker just re-claimed.
	RequeueExpired(ctx context.Context, id uuid.UUID, userID string, now time.Time) (bool, error)

	// ExpiredLeases returns the task IDs of visibility leases whose
	// deadline is before now.
	ExpiredLeases(ctx context.Context, now time.Time) ([]uuid.UUID, error)

	// UserProcessingCount returns the cardinality of the user's
	// processing set.
	UserProcessingCount(ctx context.Context, userID string) (int64, error)

	// GlobalProcessingCount returns the cardinality of the global
	// processing set.
	GlobalProcessingCount(ctx context.Context) (int64, error)

	// QueueStats returns the monitoring counters.
	QueueStats(ctx context.Context) (Stats, error)
}
