package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/marketlens/stockq/internal/domain"
)

// Dequeue is the worker-side pull. It pops the head of the ready queue,
// loads the task record, and attempts an atomic claim: re-check admission,
// insert into the processing sets, mark the task processing for workerID,
// and arm the visibility lease, all as one indivisible store operation.
// Returns nil with no error when there is nothing to hand out; callers back
// off and poll again.
//
// A denied claim pushes the ID back onto the ready queue. Order among
// pushed-back tasks is not preserved relative to their original position;
// strict FIFO is only guaranteed among tasks with no admission conflicts.
func (s *Service) Dequeue(ctx context.Context, workerID string) (*domain.Task, error) {
	id, ok, err := s.store.PopReady(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to pop ready queue: %w", err)
	}
	if !ok {
		return nil, nil
	}

	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			// Popped an ID with no record. Data inconsistency; skip it.
			s.logger.Warn("popped task has no record, dropping",
				"task_id", id)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load popped task %s: %w", id, err)
	}

	now := s.clock.Now()
	status, err := s.store.Claim(ctx, id, task.UserID, workerID,
		s.cfg.UserConcurrentLimit, s.cfg.GlobalConcurrentLimit,
		now, now.Add(s.cfg.VisibilityTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to claim task %s: %w", id, err)
	}

	switch status {
	case ClaimOK:
		task.Status = domain.TaskStatusProcessing
		task.WorkerID = workerID
		task.StartedAt = now
		s.logger.Info("task dequeued",
			"task_id", id,
			"user_id", task.UserID,
			"worker_id", workerID)
		return task, nil

	case ClaimDenied:
		if err := s.store.PushBack(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to push back denied task %s: %w", id, err)
		}
		s.logger.Warn("claim denied by concurrency limit, task returned to queue",
			"task_id", id,
			"user_id", task.UserID,
			"worker_id", workerID)
		return nil, nil

	case ClaimMissing:
		s.logger.Warn("task record vanished before claim, dropping",
			"task_id", id)
		return nil, nil

	default: // ClaimStale
		// Cancelled (or otherwise transitioned) between pop and claim.
		s.logger.Info("popped task no longer queued, dropping",
			"task_id", id,
			"status", task.Status)
		return nil, nil
	}
}
