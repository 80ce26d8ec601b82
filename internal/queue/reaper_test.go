package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/stockq/internal/domain"
	"github.com/marketlens/stockq/internal/queue"
)

// TestReapExpiredRequeues simulates a worker crash: a dequeued task whose
// lease expires returns to the ready queue and is delivered to another
// worker.
func TestReapExpiredRequeues(t *testing.T) {
	svc, clock := newTestService(queue.Config{
		UserConcurrentLimit:   2,
		GlobalConcurrentLimit: 10,
		VisibilityTimeout:     30 * time.Minute,
	})
	ctx := context.Background()

	id, err := svc.Enqueue(ctx, "u1", "600519", nil, "")
	require.NoError(t, err)

	task, err := svc.Dequeue(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, task)

	// Lease still live: nothing to reap.
	clock.Advance(29 * time.Minute)
	reaped, err := svc.ReapExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, reaped)

	clock.Advance(2 * time.Minute)
	reaped, err = svc.ReapExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reaped)

	got, err := svc.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusQueued, got.Status)
	assert.Equal(t, 1, got.Requeues)
	assert.False(t, got.RequeuedAt.IsZero())

	// The crashed worker's slot is released.
	status, err := svc.Admission().UserStatus(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), status.Processing)

	// A second worker picks the task up again.
	task, err = svc.Dequeue(ctx, "w2")
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, id, task.ID)
	assert.Equal(t, "w2", task.WorkerID)
}

// TestReapExpiredAckLate verifies the crash-recovery overlap: a task requeued
// by the reaper, then re-dequeued, can still be acked exactly once by the
// second worker while the first worker's late ack is ignored.
func TestReapExpiredAckLate(t *testing.T) {
	svc, clock := newTestService(queue.Config{
		UserConcurrentLimit:   2,
		GlobalConcurrentLimit: 10,
		VisibilityTimeout:     time.Minute,
	})
	ctx := context.Background()

	id, err := svc.Enqueue(ctx, "u1", "600519", nil, "")
	require.NoError(t, err)
	_, err = svc.Dequeue(ctx, "w1")
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	reaped, err := svc.ReapExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, reaped)

	_, err = svc.Dequeue(ctx, "w2")
	require.NoError(t, err)

	acked, err := svc.Ack(ctx, id, true)
	require.NoError(t, err)
	assert.True(t, acked)

	// The slow first worker finally reports in.
	acked, err = svc.Ack(ctx, id, true)
	require.NoError(t, err)
	assert.False(t, acked)

	got, err := svc.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, got.Status)
}

// TestReapExpiredDeadLetters verifies that a task repeatedly abandoned by
// crashing workers is marked failed once it exhausts its requeue budget.
func TestReapExpiredDeadLetters(t *testing.T) {
	svc, clock := newTestService(queue.Config{
		UserConcurrentLimit:   2,
		GlobalConcurrentLimit: 10,
		VisibilityTimeout:     time.Minute,
		MaxRequeues:           1,
	})
	ctx := context.Background()

	id, err := svc.Enqueue(ctx, "u1", "600519", nil, "")
	require.NoError(t, err)

	// First crash: requeued.
	_, err = svc.Dequeue(ctx, "w1")
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)
	reaped, err := svc.ReapExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, reaped)

	got, err := svc.GetTask(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.TaskStatusQueued, got.Status)
	require.Equal(t, 1, got.Requeues)

	// Second crash: budget exhausted, dead-lettered.
	_, err = svc.Dequeue(ctx, "w2")
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)
	reaped, err = svc.ReapExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, reaped)

	got, err = svc.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusFailed, got.Status)

	task, err := svc.Dequeue(ctx, "w3")
	require.NoError(t, err)
	assert.Nil(t, task, "dead-lettered task must not be delivered again")
}

// TestReapExpiredUnboundedRequeues verifies MaxRequeues == 0 means no
// dead-letter ceiling.
func TestReapExpiredUnboundedRequeues(t *testing.T) {
	svc, clock := newTestService(queue.Config{
		UserConcurrentLimit:   2,
		GlobalConcurrentLimit: 10,
		VisibilityTimeout:     time.Minute,
	})
	ctx := context.Background()

	id, err := svc.Enqueue(ctx, "u1", "600519", nil, "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = svc.Dequeue(ctx, "w1")
		require.NoError(t, err)
		clock.Advance(2 * time.Minute)
		reaped, err := svc.ReapExpired(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, reaped)
	}

	got, err := svc.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusQueued, got.Status)
	assert.Equal(t, 3, got.Requeues)
}

// TestReapExpiredSkipsAcked verifies the reaper tolerates a lease that was
// released between scan and requeue.
func TestReapExpiredSkipsAcked(t *testing.T) {
	svc, clock := newTestService(queue.Config{
		UserConcurrentLimit:   2,
		GlobalConcurrentLimit: 10,
		VisibilityTimeout:     time.Minute,
	})
	ctx := context.Background()

	id, err := svc.Enqueue(ctx, "u1", "600519", nil, "")
	require.NoError(t, err)
	_, err = svc.Dequeue(ctx, "w1")
	require.NoError(t, err)

	acked, err := svc.Ack(ctx, id, true)
	require.NoError(t, err)
	require.True(t, acked)

	clock.Advance(2 * time.Minute)
	reaped, err := svc.ReapExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, reaped)

	got, err := svc.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, got.Status)
}
