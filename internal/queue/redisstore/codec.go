package redisstore

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/marketlens/stockq/internal/domain"
)

// timeLayout is the wire format for timestamps in Redis hashes. Zero times
// are stored as the empty string.
const timeLayout = time.RFC3339Nano

func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

// taskFields flattens a task into the hash representation written to Redis.
// This is the (de)serialization boundary: everything outside this file works
// with typed domain structs.
func taskFields(t *domain.Task) map[string]any {
	return map[string]any{
		"id":           t.ID.String(),
		"user_id":      t.UserID,
		"symbol":       t.Symbol,
		"params":       string(t.Params),
		"batch_id":     t.BatchID,
		"status":       string(t.Status),
		"worker_id":    t.WorkerID,
		"requeues":     strconv.Itoa(t.Requeues),
		"created_at":   encodeTime(t.CreatedAt),
		"enqueued_at":  encodeTime(t.EnqueuedAt),
		"started_at":   encodeTime(t.StartedAt),
		"completed_at": encodeTime(t.CompletedAt),
		"cancelled_at": encodeTime(t.CancelledAt),
		"requeued_at":  encodeTime(t.RequeuedAt),
	}
}

// taskFromHash rebuilds a task from its Redis hash representation.
func taskFromHash(fields map[string]string) (*domain.Task, error) {
	id, err := uuid.Parse(fields["id"])
	if err != nil {
		return nil, fmt.Errorf("task hash has invalid id %q: %w", fields["id"], err)
	}

	t := &domain.Task{
		ID:       id,
		UserID:   fields["user_id"],
		Symbol:   fields["symbol"],
		BatchID:  fields["batch_id"],
		Status:   domain.TaskStatus(fields["status"]),
		WorkerID: fields["worker_id"],
	}

	if p := fields["params"]; p != "" {
		t.Params = []byte(p)
	}
	if r := fields["requeues"]; r != "" {
		if t.Requeues, err = strconv.Atoi(r); err != nil {
			return nil, fmt.Errorf("task hash has invalid requeues %q: %w", r, err)
		}
	}

	for _, f := range []struct {
		name string
		dst  *time.Time
	}{
		{"created_at", &t.CreatedAt},
		{"enqueued_at", &t.EnqueuedAt},
		{"started_at", &t.StartedAt},
		{"completed_at", &t.CompletedAt},
		{"cancelled_at", &t.CancelledAt},
		{"requeued_at", &t.RequeuedAt},
	} {
		if *f.dst, err = decodeTime(fields[f.name]); err != nil {
			return nil, fmt.Errorf("task hash has invalid %s: %w", f.name, err)
		}
	}

	return t, nil
}

// batchFields flattens a batch into the hash representation written to Redis.
func batchFields(b *domain.Batch) map[string]any {
	return map[string]any{
		"id":          b.ID.String(),
		"user_id":     b.UserID,
		"status":      string(b.Status),
		"total_tasks": strconv.Itoa(b.TotalTasks),
		"created_at":  encodeTime(b.CreatedAt),
	}
}

// batchFromHash rebuilds a batch from its Redis hash representation.
func batchFromHash(fields map[string]string) (*domain.Batch, error) {
	id, err := uuid.Parse(fields["id"])
	if err != nil {
		return nil, fmt.Errorf("batch hash has invalid id %q: %w", fields["id"], err)
	}

	total, err := strconv.Atoi(fields["total_tasks"])
	if err != nil {
		return nil, fmt.Errorf("batch hash has invalid total_tasks %q: %w", fields["total_tasks"], err)
	}

	created, err := decodeTime(fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("batch hash has invalid created_at: %w", err)
	}

	return &domain.Batch{
		ID:         id,
		UserID:     fields["user_id"],
		Status:     domain.BatchStatus(fields["status"]),
		TotalTasks: total,
		CreatedAt:  created,
	}, nil
}
