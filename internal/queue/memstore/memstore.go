// Package memstore provides an in-memory implementation of queue.Store.
// It backs unit tests and single-process deployments; the cross-process
// production store lives in the redisstore package. All methods are safe
// for concurrent use via an internal mutex, and every multi-structure
// mutation happens under one critical section, giving the same atomicity
// guarantees the Redis store gets from Lua scripts.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marketlens/stockq/internal/domain"
	"github.com/marketlens/stockq/internal/queue"
)

// lease is a visibility-timeout record for one processing task.
type lease struct {
	workerID  string
	timeoutAt time.Time
}

// Store is a mutex-guarded in-memory queue.Store.
type Store struct {
	mu sync.Mutex

	tasks        map[uuid.UUID]*domain.Task
	batches      map[uuid.UUID]*domain.Batch
	batchMembers map[uuid.UUID][]uuid.UUID

	ready []uuid.UUID

	userProcessing   map[string]map[uuid.UUID]struct{}
	globalProcessing map[uuid.UUID]struct{}
	leases           map[uuid.UUID]lease

	completed int64
	failed    int64
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		tasks:            make(map[uuid.UUID]*domain.Task),
		batches:          make(map[uuid.UUID]*domain.Batch),
		batchMembers:     make(map[uuid.UUID][]uuid.UUID),
		userProcessing:   make(map[string]map[uuid.UUID]struct{}),
		globalProcessing: make(map[uuid.UUID]struct{}),
		leases:           make(map[uuid.UUID]lease),
	}
}

var _ queue.Store = (*Store)(nil)

// copyTask clones a task so callers never share the stored record.
func copyTask(t *domain.Task) *domain.Task {
	c := *t
	if t.Params != nil {
		c.Params = append([]byte(nil), t.Params...)
	}
	return &c
}

// SaveTask writes a task record.
func (s *Store) SaveTask(_ context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[t.ID] = copyTask(t)
	return nil
}

// GetTask loads a task record.
func (s *Store) GetTask(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return copyTask(t), nil
}

// SaveBatch writes a batch record.
func (s *Store) SaveBatch(_ context.Context, b *domain.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *b
	c.TaskIDs = nil
	s.batches[b.ID] = &c
	return nil
}

// GetBatch loads a batch record with its member task IDs.
func (s *Store) GetBatch(_ context.Context, id uuid.UUID) (*domain.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[id]
	if !ok {
		return nil, domain.ErrBatchNotFound
	}
	c := *b
	c.TaskIDs = append([]uuid.UUID(nil), s.batchMembers[id]...)
	return &c, nil
}

// PushReady appends a task ID to the tail of the ready queue.
func (s *Store) PushReady(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ready = append(s.ready, id)
	return nil
}

// PushBack returns a denied task to the ready queue.
func (s *Store) PushBack(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Front insert, matching where it was popped from. Ordering among
	// pushed-back tasks is explicitly not guaranteed.
	s.ready = append([]uuid.UUID{id}, s.ready...)
	return nil
}

// PopReady removes and returns the head of the ready queue.
func (s *Store) PopReady(_ context.Context) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.ready) == 0 {
		return uuid.Nil, false, nil
	}
	id := s.ready[0]
	s.ready = s.ready[1:]
	return id, true, nil
}

// AddBatchMember registers a task ID in a batch's member set.
func (s *Store) AddBatchMember(_ context.Context, batchID, taskID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batchMembers[batchID] = append(s.batchMembers[batchID], taskID)
	return nil
}

// CreateBatchTasks writes all task records, ready entries, and batch
// memberships under one critical section.
func (s *Store) CreateBatchTasks(_ context.Context, b *domain.Batch, tasks []*domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		s.tasks[t.ID] = copyTask(t)
		s.ready = append(s.ready, t.ID)
		members = append(members, t.ID)
	}
	s.batchMembers[b.ID] = members
	return nil
}

// Claim atomically re-checks admission and transitions a queued task to
// processing with a visibility lease.
func (s *Store) Claim(_ context.Context, id uuid.UUID, userID, workerID string, userLimit, globalLimit int, now, timeoutAt time.Time) (queue.ClaimStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return queue.ClaimMissing, nil
	}
	if t.Status != domain.TaskStatusQueued {
		return queue.ClaimStale, nil
	}

	userSet := s.userProcessing[userID]
	if len(userSet) >= userLimit || len(s.globalProcessing) >= globalLimit {
		return queue.ClaimDenied, nil
	}

	if userSet == nil {
		userSet = make(map[uuid.UUID]struct{})
		s.userProcessing[userID] = userSet
	}
	userSet[id] = struct{}{}
	s.globalProcessing[id] = struct{}{}
	s.leases[id] = lease{workerID: workerID, timeoutAt: timeoutAt}

	t.Status = domain.TaskStatusProcessing
	t.WorkerID = workerID
	t.StartedAt = now

	return queue.ClaimOK, nil
}

// release removes a processing task from both sets and clears its lease.
// Caller must hold the mutex. Returns the task or nil if not processing.
func (s *Store) release(id uuid.UUID) *domain.Task {
	t, ok := s.tasks[id]
	if !ok || t.Status != domain.TaskStatusProcessing {
		return nil
	}

	if userSet, ok := s.userProcessing[t.UserID]; ok {
		delete(userSet, id)
		if len(userSet) == 0 {
			delete(s.userProcessing, t.UserID)
		}
	}
	delete(s.globalProcessing, id)
	delete(s.leases, id)
	return t
}

// Release transitions a processing task to a terminal status.
func (s *Store) Release(_ context.Context, id uuid.UUID, _ string, to domain.TaskStatus, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.release(id)
	if t == nil {
		return false, nil
	}

	t.Status = to
	t.WorkerID = ""
	switch to {
	case domain.TaskStatusCompleted:
		t.CompletedAt = now
		s.completed++
	case domain.TaskStatusFailed:
		t.CompletedAt = now
		s.failed++
	case domain.TaskStatusCancelled:
		t.CancelledAt = now
	}
	return true, nil
}

// CancelQueued cancels a queued task and removes it from the ready queue.
func (s *Store) CancelQueued(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.Status != domain.TaskStatusQueued {
		return false, nil
	}

	for i, rid := range s.ready {
		if rid == id {
			s.ready = append(s.ready[:i], s.ready[i+1:]...)
			break
		}
	}

	t.Status = domain.TaskStatusCancelled
	t.CancelledAt = now
	return true, nil
}

// RequeueExpired returns an orphaned processing task to the ready queue.
// It re-checks that the task's lease is still expired, so a task that was
// re-claimed under a fresh lease since the caller's scan is left alone.
func (s *Store) RequeueExpired(_ context.Context, id uuid.UUID, _ string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.leases[id]
	if !ok || !l.timeoutAt.Before(now) {
		return false, nil
	}

	t := s.release(id)
	if t == nil {
		return false, nil
	}

	t.Status = domain.TaskStatusQueued
	t.WorkerID = ""
	t.RequeuedAt = now
	t.Requeues++
	s.ready = append(s.ready, id)
	return true, nil
}

// ExpiredLeases returns task IDs whose lease deadline is before now.
func (s *Store) ExpiredLeases(_ context.Context, now time.Time) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []uuid.UUID
	for id, l := range s.leases {
		if l.timeoutAt.Before(now) {
			expired = append(expired, id)
		}
	}
	return expired, nil
}

// UserProcessingCount returns the user's processing-set cardinality.
func (s *Store) UserProcessingCount(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.userProcessing[userID])), nil
}

// GlobalProcessingCount returns the global processing-set cardinality.
func (s *Store) GlobalProcessingCount(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.globalProcessing)), nil
}

// QueueStats returns the monitoring counters.
func (s *Store) QueueStats(_ context.Context) (queue.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return queue.Stats{
		Queued:     int64(len(s.ready)),
		Processing: int64(len(s.globalProcessing)),
		Completed:  s.completed,
		Failed:     s.failed,
	}, nil
}
