package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/marketlens/stockq/internal/domain"
)

// ReapExpired scans the visibility leases for tasks whose deadline has
// passed without an acknowledgement and returns each to the ready queue:
// the worker that held the lease is presumed crashed or hung past the SLA.
// Requeued tasks get status queued, a fresh RequeuedAt, and an incremented
// requeue counter, atomically with the processing-set removal.
//
// When MaxRequeues is positive, a task that has already been requeued that
// many times is failed instead of requeued, terminating the crash loop.
//
// ReapExpired is invoked on a fixed interval by an external scheduler; it
// never schedules itself. Running it concurrently with workers is safe: a
// lease that is acked between scan and requeue is simply skipped.
func (s *Service) ReapExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()

	expired, err := s.store.ExpiredLeases(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to scan visibility leases: %w", err)
	}

	reaped := 0
	for _, taskID := range expired {
		task, err := s.store.GetTask(ctx, taskID)
		if err != nil {
			if errors.Is(err, domain.ErrTaskNotFound) {
				s.logger.Warn("expired lease references missing task",
					"task_id", taskID)
				continue
			}
			return reaped, fmt.Errorf("failed to load expired task %s: %w", taskID, err)
		}

		if s.cfg.MaxRequeues > 0 && task.Requeues >= s.cfg.MaxRequeues {
			released, err := s.store.Release(ctx, taskID, task.UserID, domain.TaskStatusFailed, now)
			if err != nil {
				return reaped, fmt.Errorf("failed to dead-letter task %s: %w", taskID, err)
			}
			if released {
				reaped++
				s.logger.Error("task exceeded requeue bound, marked failed",
					"task_id", taskID,
					"requeues", task.Requeues,
					"worker_id", task.WorkerID)
			}
			continue
		}

		requeued, err := s.store.RequeueExpired(ctx, taskID, task.UserID, now)
		if err != nil {
			return reaped, fmt.Errorf("failed to requeue expired task %s: %w", taskID, err)
		}
		if requeued {
			reaped++
			s.logger.Warn("orphaned task returned to queue",
				"task_id", taskID,
				"requeues", task.Requeues+1,
				"worker_id", task.WorkerID)
		}
	}

	return reaped, nil
}
