package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/marketlens/stockq/internal/domain"
)

// Enqueue submits one analysis task. The task record is written before the
// ID is appended to the ready queue, so any reader that sees the ID can load
// the record.
//
// The admission check here is the optimistic one: it rejects submissions
// from users who are already at their concurrency ceiling so they get a
// synchronous domain.ErrAdmissionDenied instead of a task that will sit
// behind their own running work. The authoritative check happens again at
// dequeue time inside the atomic claim.
func (s *Service) Enqueue(ctx context.Context, userID, symbol string, params json.RawMessage, batchID string) (uuid.UUID, error) {
	task, err := domain.NewTask(userID, symbol, params, batchID)
	if err != nil {
		return uuid.Nil, err
	}

	var batchUUID uuid.UUID
	if batchID != "" {
		if batchUUID, err = uuid.Parse(batchID); err != nil {
			return uuid.Nil, fmt.Errorf("batch id %q: %w", batchID, domain.ErrInvalidID)
		}
	}

	if ok, err := s.admission.CanAdmitUser(ctx, userID); err != nil {
		return uuid.Nil, err
	} else if !ok {
		return uuid.Nil, fmt.Errorf("user %s: %w", userID, domain.ErrAdmissionDenied)
	}

	if ok, err := s.admission.CanAdmitGlobal(ctx); err != nil {
		return uuid.Nil, err
	} else if !ok {
		return uuid.Nil, fmt.Errorf("global: %w", domain.ErrAdmissionDenied)
	}

	now := s.clock.Now()
	task.CreatedAt = now
	task.EnqueuedAt = now

	if err := s.store.SaveTask(ctx, task); err != nil {
		return uuid.Nil, fmt.Errorf("failed to save task: %w", err)
	}

	if batchUUID != uuid.Nil {
		if err := s.store.AddBatchMember(ctx, batchUUID, task.ID); err != nil {
			return uuid.Nil, fmt.Errorf("failed to register batch member: %w", err)
		}
	}

	if err := s.store.PushReady(ctx, task.ID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	s.logger.Info("task enqueued",
		"task_id", task.ID,
		"user_id", userID,
		"symbol", symbol,
		"batch_id", batchID)

	return task.ID, nil
}

// CreateBatch submits one task per symbol as a single atomic unit: either
// every task record exists, is on the ready queue, and is registered in the
// batch member set, or none of them are observable. The batch record itself
// is written after the transaction commits, carrying TotalTasks.
func (s *Service) CreateBatch(ctx context.Context, userID string, symbols []string, params json.RawMessage) (uuid.UUID, int, error) {
	batch, err := domain.NewBatch(userID, len(symbols))
	if err != nil {
		return uuid.Nil, 0, err
	}

	now := s.clock.Now()
	batch.CreatedAt = now

	tasks := make([]*domain.Task, 0, len(symbols))
	for _, symbol := range symbols {
		task, err := domain.NewTask(userID, symbol, params, batch.ID.String())
		if err != nil {
			return uuid.Nil, 0, err
		}
		task.CreatedAt = now
		task.EnqueuedAt = now
		tasks = append(tasks, task)
	}

	if err := s.store.CreateBatchTasks(ctx, batch, tasks); err != nil {
		return uuid.Nil, 0, fmt.Errorf("failed to create batch tasks: %w", err)
	}

	if err := s.store.SaveBatch(ctx, batch); err != nil {
		return uuid.Nil, 0, fmt.Errorf("failed to save batch: %w", err)
	}

	s.logger.Info("batch enqueued",
		"batch_id", batch.ID,
		"user_id", userID,
		"total_tasks", batch.TotalTasks)

	return batch.ID, batch.TotalTasks, nil
}
