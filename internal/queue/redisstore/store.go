// Package redisstore implements queue.Store on Redis. Task and batch
// records are hashes, the ready queue is a list, the processing sets and
// batch memberships are sets, and visibility leases are per-task hashes.
// The claim, release, cancel, and requeue transitions run as server-side
// Lua scripts so they are atomic with respect to every other process
// sharing the store; batch creation uses a transactional pipeline.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/marketlens/stockq/internal/domain"
	"github.com/marketlens/stockq/internal/queue"
)

// Store is a Redis-backed queue.Store.
type Store struct {
	client *redis.Client
}

// New creates a Store over the given client. The caller owns the client's
// lifecycle.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

var _ queue.Store = (*Store)(nil)

// SaveTask writes a task record.
func (s *Store) SaveTask(ctx context.Context, t *domain.Task) error {
	if err := s.client.HSet(ctx, taskKey(t.ID), taskFields(t)).Err(); err != nil {
		return fmt.Errorf("failed to write task hash: %w", err)
	}
	return nil
}

// GetTask loads a task record.
func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	fields, err := s.client.HGetAll(ctx, taskKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read task hash: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrTaskNotFound
	}
	return taskFromHash(fields)
}

// SaveBatch writes a batch record.
func (s *Store) SaveBatch(ctx context.Context, b *domain.Batch) error {
	if err := s.client.HSet(ctx, batchKey(b.ID), batchFields(b)).Err(); err != nil {
		return fmt.Errorf("failed to write batch hash: %w", err)
	}
	return nil
}

// GetBatch loads a batch record and its member task IDs.
func (s *Store) GetBatch(ctx context.Context, id uuid.UUID) (*domain.Batch, error) {
	fields, err := s.client.HGetAll(ctx, batchKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read batch hash: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrBatchNotFound
	}

	batch, err := batchFromHash(fields)
	if err != nil {
		return nil, err
	}

	members, err := s.client.SMembers(ctx, batchTasksKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read batch members: %w", err)
	}
	for _, m := range members {
		taskID, err := uuid.Parse(m)
		if err != nil {
			return nil, fmt.Errorf("batch member set has invalid id %q: %w", m, err)
		}
		batch.TaskIDs = append(batch.TaskIDs, taskID)
	}

	return batch, nil
}

// PushReady appends a task ID to the tail of the ready queue.
func (s *Store) PushReady(ctx context.Context, id uuid.UUID) error {
	if err := s.client.RPush(ctx, readyKey, id.String()).Err(); err != nil {
		return fmt.Errorf("failed to push ready queue: %w", err)
	}
	return nil
}

// PushBack returns a denied task to the head of the ready queue, the end it
// was popped from.
func (s *Store) PushBack(ctx context.Context, id uuid.UUID) error {
	if err := s.client.LPush(ctx, readyKey, id.String()).Err(); err != nil {
		return fmt.Errorf("failed to push back ready queue: %w", err)
	}
	return nil
}

// PopReady removes and returns the head of the ready queue.
func (s *Store) PopReady(ctx context.Context) (uuid.UUID, bool, error) {
	val, err := s.client.LPop(ctx, readyKey).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to pop ready queue: %w", err)
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("ready queue holds invalid id %q: %w", val, err)
	}
	return id, true, nil
}

// AddBatchMember registers a task ID in a batch's member set.
func (s *Store) AddBatchMember(ctx context.Context, batchID, taskID uuid.UUID) error {
	if err := s.client.SAdd(ctx, batchTasksKey(batchID), taskID.String()).Err(); err != nil {
		return fmt.Errorf("failed to add batch member: %w", err)
	}
	return nil
}

// CreateBatchTasks writes every task record, ready entry, and batch
// membership in one transactional pipeline: a single atomic round trip,
// never N independent writes.
func (s *Store) CreateBatchTasks(ctx context.Context, b *domain.Batch, tasks []*domain.Task) error {
	pipe := s.client.TxPipeline()
	membersKey := batchTasksKey(b.ID)
	for _, t := range tasks {
		pipe.HSet(ctx, taskKey(t.ID), taskFields(t))
		pipe.RPush(ctx, readyKey, t.ID.String())
		pipe.SAdd(ctx, membersKey, t.ID.String())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute batch pipeline: %w", err)
	}
	return nil
}

// Claim runs the claim script: admission re-check, processing-set inserts,
// status flip, and lease arm as one server-side step.
func (s *Store) Claim(ctx context.Context, id uuid.UUID, userID, workerID string, userLimit, globalLimit int, now, timeoutAt time.Time) (queue.ClaimStatus, error) {
	keys := []string{taskKey(id), userProcKey(userID), globalProcKey, visibilityKey(id)}
	res, err := claimScript.Run(ctx, s.client, keys,
		workerID,
		userLimit,
		globalLimit,
		encodeTime(now),
		timeoutAt.UTC().Unix(),
	).Result()
	if err != nil {
		return 0, fmt.Errorf("claim script failed: %w", err)
	}

	switch res {
	case "claimed":
		return queue.ClaimOK, nil
	case "denied":
		return queue.ClaimDenied, nil
	case "missing":
		return queue.ClaimMissing, nil
	case "stale":
		return queue.ClaimStale, nil
	default:
		return 0, fmt.Errorf("claim script returned unexpected value %v", res)
	}
}

// Release runs the release script, transitioning a processing task to the
// given terminal status.
func (s *Store) Release(ctx context.Context, id uuid.UUID, userID string, to domain.TaskStatus, now time.Time) (bool, error) {
	tsField := "completed_at"
	terminalSet := completedKey
	trackTerminal := "1"
	switch to {
	case domain.TaskStatusFailed:
		terminalSet = failedKey
	case domain.TaskStatusCancelled:
		tsField = "cancelled_at"
		trackTerminal = ""
	case domain.TaskStatusCompleted:
	default:
		return false, fmt.Errorf("release to non-terminal status %q", to)
	}

	keys := []string{taskKey(id), userProcKey(userID), globalProcKey, visibilityKey(id), terminalSet}
	res, err := releaseScript.Run(ctx, s.client, keys,
		string(to),
		tsField,
		encodeTime(now),
		trackTerminal,
	).Int()
	if err != nil {
		return false, fmt.Errorf("release script failed: %w", err)
	}
	return res == 1, nil
}

// CancelQueued runs the cancel script against a still-queued task.
func (s *Store) CancelQueued(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	keys := []string{taskKey(id), readyKey}
	res, err := cancelQueuedScript.Run(ctx, s.client, keys, encodeTime(now)).Int()
	if err != nil {
		return false, fmt.Errorf("cancel script failed: %w", err)
	}
	return res == 1, nil
}

// RequeueExpired runs the requeue script, returning an orphaned task to the
// ready queue. The script re-checks that the lease is still expired, so a
// task re-claimed under a fresh lease since the scan is left alone.
func (s *Store) RequeueExpired(ctx context.Context, id uuid.UUID, userID string, now time.Time) (bool, error) {
	keys := []string{taskKey(id), userProcKey(userID), globalProcKey, visibilityKey(id), readyKey}
	res, err := requeueScript.Run(ctx, s.client, keys, encodeTime(now), now.UTC().Unix()).Int()
	if err != nil {
		return false, fmt.Errorf("requeue script failed: %w", err)
	}
	return res == 1, nil
}

// ExpiredLeases scans the visibility keyspace and returns the task IDs of
// leases past their deadline.
func (s *Store) ExpiredLeases(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var expired []uuid.UUID
	cutoff := now.UTC().Unix()

	iter := s.client.Scan(ctx, 0, visibilityPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		deadline, err := s.client.HGet(ctx, key, "timeout_at").Result()
		if errors.Is(err, redis.Nil) {
			// Lease cleared between scan and read.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read lease %s: %w", key, err)
		}

		timeoutAt, err := strconv.ParseInt(deadline, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("lease %s has invalid timeout_at %q: %w", key, deadline, err)
		}
		if timeoutAt >= cutoff {
			continue
		}

		taskID, err := uuid.Parse(strings.TrimPrefix(key, visibilityPrefix))
		if err != nil {
			return nil, fmt.Errorf("lease key %s has invalid task id: %w", key, err)
		}
		expired = append(expired, taskID)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan visibility leases: %w", err)
	}

	return expired, nil
}

// UserProcessingCount returns the user's processing-set cardinality.
func (s *Store) UserProcessingCount(ctx context.Context, userID string) (int64, error) {
	count, err := s.client.SCard(ctx, userProcKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read user processing set: %w", err)
	}
	return count, nil
}

// GlobalProcessingCount returns the global processing-set cardinality.
func (s *Store) GlobalProcessingCount(ctx context.Context) (int64, error) {
	count, err := s.client.SCard(ctx, globalProcKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read global processing set: %w", err)
	}
	return count, nil
}

// QueueStats returns the monitoring counters.
func (s *Store) QueueStats(ctx context.Context) (queue.Stats, error) {
	pipe := s.client.Pipeline()
	queued := pipe.LLen(ctx, readyKey)
	processing := pipe.SCard(ctx, globalProcKey)
	completed := pipe.SCard(ctx, completedKey)
	failed := pipe.SCard(ctx, failedKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return queue.Stats{}, fmt.Errorf("failed to read queue stats: %w", err)
	}

	return queue.Stats{
		Queued:     queued.Val(),
		Processing: processing.Val(),
		Completed:  completed.Val(),
		Failed:     failed.Val(),
	}, nil
}
