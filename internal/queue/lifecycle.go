package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/marketlens/stockq/internal/domain"
)

// Ack acknowledges a processing task as completed (success=true) or failed.
// It removes the task from both processing sets, clears the visibility
// lease, and stamps CompletedAt, all atomically.
//
// Ack is idempotent: acknowledging a task that is not in the processing
// state (already acked, cancelled, or reclaimed by the reaper) is a no-op
// returning false, so a double ack can neither corrupt the processing
// counts nor re-arm timestamps.
func (s *Service) Ack(ctx context.Context, taskID uuid.UUID, success bool) (bool, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return false, err
	}

	to := domain.TaskStatusCompleted
	if !success {
		to = domain.TaskStatusFailed
	}

	released, err := s.store.Release(ctx, taskID, task.UserID, to, s.clock.Now())
	if err != nil {
		return false, fmt.Errorf("failed to ack task %s: %w", taskID, err)
	}
	if !released {
		s.logger.Debug("ack ignored for non-processing task",
			"task_id", taskID)
		return false, nil
	}

	s.logger.Info("task acknowledged",
		"task_id", taskID,
		"success", success)
	return true, nil
}

// Cancel cancels a task. A processing task is released through the same
// atomic path as Ack; a queued task is removed from the ready queue and
// marked cancelled. Terminal tasks are a no-op returning false.
//
// Cancelling a processing task only updates bookkeeping: the worker's
// in-flight call is not interrupted and its eventual ack becomes a no-op.
func (s *Service) Cancel(ctx context.Context, taskID uuid.UUID) (bool, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return false, err
		}
		return false, fmt.Errorf("failed to load task %s: %w", taskID, err)
	}

	now := s.clock.Now()

	switch task.Status {
	case domain.TaskStatusProcessing:
		released, err := s.store.Release(ctx, taskID, task.UserID, domain.TaskStatusCancelled, now)
		if err != nil {
			return false, fmt.Errorf("failed to cancel processing task %s: %w", taskID, err)
		}
		if released {
			s.logger.Info("processing task cancelled", "task_id", taskID)
		}
		return released, nil

	case domain.TaskStatusQueued:
		cancelled, err := s.store.CancelQueued(ctx, taskID, now)
		if err != nil {
			return false, fmt.Errorf("failed to cancel queued task %s: %w", taskID, err)
		}
		if cancelled {
			s.logger.Info("queued task cancelled", "task_id", taskID)
		}
		return cancelled, nil

	default:
		// Already terminal.
		return false, nil
	}
}

// CancelBatch cascades Cancel to every member task still queued or
// processing and marks the batch cancelled when at least one member was
// cancelled or the batch had no active members. Returns how many member
// tasks were cancelled.
func (s *Service) CancelBatch(ctx context.Context, batchID uuid.UUID) (int, error) {
	batch, err := s.store.GetBatch(ctx, batchID)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, taskID := range batch.TaskIDs {
		ok, err := s.Cancel(ctx, taskID)
		if err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
			return cancelled, fmt.Errorf("failed to cancel batch member %s: %w", taskID, err)
		}
		if ok {
			cancelled++
		}
	}

	batch.Status = domain.BatchStatusCancelled
	if err := s.store.SaveBatch(ctx, batch); err != nil {
		return cancelled, fmt.Errorf("failed to mark batch cancelled: %w", err)
	}

	s.logger.Info("batch cancelled",
		"batch_id", batchID,
		"tasks_cancelled", cancelled)
	return cancelled, nil
}
