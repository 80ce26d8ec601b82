package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/marketlens/stockq/internal/domain"
)

// Config holds the admission and lease settings of a queue service.
type Config struct {
	// UserConcurrentLimit caps processing tasks per user.
	UserConcurrentLimit int

	// GlobalConcurrentLimit caps processing tasks across all users.
	GlobalConcurrentLimit int

	// VisibilityTimeout is the lease granted to a worker on dequeue.
	VisibilityTimeout time.Duration

	// MaxRequeues bounds reaper requeues; zero means unbounded.
	MaxRequeues int
}

// DefaultConfig returns a Config with the defaults used in production.
func DefaultConfig() Config {
	return Config{
		UserConcurrentLimit:   2,
		GlobalConcurrentLimit: 10,
		VisibilityTimeout:     30 * time.Minute,
		MaxRequeues:           0,
	}
}

// Service coordinates task submission, dispatch, acknowledgement, and
// recovery over a Store. It holds no mutable state of its own; any number
// of Service instances in any number of processes may share one Store.
type Service struct {
	store     Store
	admission *AdmissionController
	cfg       Config
	clock     Clock
	logger    *slog.Logger
}

// NewService creates a queue Service over the given store. A nil clock
// defaults to the real clock and a nil logger to the process default.
func NewService(store Store, cfg Config, clock Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.UserConcurrentLimit <= 0 {
		cfg.UserConcurrentLimit = DefaultConfig().UserConcurrentLimit
	}
	if cfg.GlobalConcurrentLimit <= 0 {
		cfg.GlobalConcurrentLimit = DefaultConfig().GlobalConcurrentLimit
	}
	if cfg.VisibilityTimeout <= 0 {
		cfg.VisibilityTimeout = DefaultConfig().VisibilityTimeout
	}

	return &Service{
		store:     store,
		admission: NewAdmissionController(store, cfg.UserConcurrentLimit, cfg.GlobalConcurrentLimit),
		cfg:       cfg,
		clock:     clock,
		logger:    logger,
	}
}

// Admission exposes the service's admission controller for introspection.
func (s *Service) Admission() *AdmissionController {
	return s.admission
}

// GetTask returns the task record for the given ID.
func (s *Service) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.store.GetTask(ctx, id)
}

// GetBatch returns the batch record for the given ID, including its member
// task IDs.
func (s *Service) GetBatch(ctx context.Context, id uuid.UUID) (*domain.Batch, error) {
	return s.store.GetBatch(ctx, id)
}

// Stats returns the queued/processing/completed/failed counters.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.store.QueueStats(ctx)
}
