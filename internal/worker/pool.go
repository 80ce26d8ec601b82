// Package worker runs a pool of polling workers that pull analysis tasks
// from the queue, hand them to an Executor, and acknowledge the outcome.
// The pool is optional: workers may equally run in separate processes, all
// coordinating through the shared store.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marketlens/stockq/internal/domain"
	"github.com/marketlens/stockq/internal/queue"
)

// Executor performs the actual analysis for one task. Implementations are
// the out-of-scope analysis engine; they must tolerate redelivery, since a
// task whose visibility lease expires will be executed again elsewhere.
type Executor interface {
	Execute(ctx context.Context, task *domain.Task) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, task *domain.Task) error

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, task *domain.Task) error {
	return f(ctx, task)
}

// PoolConfig holds configuration options for the worker pool.
type PoolConfig struct {
	// Count determines how many concurrent polling workers to start.
	// If zero or negative, defaults to 1.
	Count int

	// PollInterval is the base delay between empty polls.
	PollInterval time.Duration

	// PollJitter is added uniformly at random to each delay so many
	// workers do not poll the store in lockstep.
	PollJitter time.Duration
}

// DefaultPoolConfig returns a PoolConfig with reasonable defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Count:        2,
		PollInterval: 500 * time.Millisecond,
		PollJitter:   250 * time.Millisecond,
	}
}

// Pool manages a set of worker goroutines that poll the queue service for
// tasks. It handles graceful shutdown and worker lifecycle.
type Pool struct {
	service  *queue.Service
	executor Executor
	config   PoolConfig
	logger   *slog.Logger

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	// errorHandler is called when task execution fails.
	// If nil, errors are only logged.
	errorHandler func(task *domain.Task, err error)
}

// NewPool creates a worker pool over the queue service.
func NewPool(service *queue.Service, executor Executor, config PoolConfig, logger *slog.Logger) *Pool {
	if config.Count <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.Count,
			"default_count", 1)
		config.Count = 1
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPoolConfig().PollInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		service:  service,
		executor: executor,
		config:   config,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetErrorHandler allows setting a custom handler for task execution
// failures.
func (p *Pool) SetErrorHandler(handler func(task *domain.Task, err error)) {
	p.errorHandler = handler
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.config.Count; i++ {
		workerID := fmt.Sprintf("worker-%s", uuid.New().String()[:8])
		p.wg.Add(1)
		go p.run(workerID)
	}
	p.logger.Info("worker pool started", "worker_count", p.config.Count)
}

// Stop cancels all workers and waits for in-flight tasks to finish.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

// run is one worker's poll loop.
func (p *Pool) run(workerID string) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", workerID)

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("stopping worker", "worker_id", workerID)
			return
		default:
		}

		task, err := p.service.Dequeue(p.ctx, workerID)
		if err != nil {
			p.logger.Error("dequeue failed",
				"worker_id", workerID,
				"error", err)
			p.sleep()
			continue
		}
		if task == nil {
			// Nothing ready (or claim denied); back off and poll again.
			p.sleep()
			continue
		}

		p.process(workerID, task)
	}
}

// ackTimeout bounds the detached acknowledgement call in process.
const ackTimeout = 5 * time.Second

// process executes one claimed task and acknowledges the outcome.
func (p *Pool) process(workerID string, task *domain.Task) {
	execErr := p.executor.Execute(p.ctx, task)

	// Ack on a fresh context: p.ctx is cancelled by Stop, and an in-flight
	// task finished during shutdown must still reach the store instead of
	// idling until the visibility timeout requeues it.
	ackCtx, cancel := context.WithTimeout(context.Background(), ackTimeout)
	defer cancel()

	acked, ackErr := p.service.Ack(ackCtx, task.ID, execErr == nil)
	if ackErr != nil {
		p.logger.Error("failed to acknowledge task",
			"task_id", task.ID,
			"worker_id", workerID,
			"error", ackErr)
	} else if !acked {
		// Lease expired or task was cancelled while executing; some
		// other transition already owns the terminal state.
		p.logger.Warn("acknowledgement was a no-op",
			"task_id", task.ID,
			"worker_id", workerID)
	}

	if execErr != nil {
		if p.errorHandler != nil {
			p.errorHandler(task, execErr)
		} else {
			p.logger.Error("task execution failed",
				"task_id", task.ID,
				"symbol", task.Symbol,
				"worker_id", workerID,
				"error", execErr)
		}
	}
}

// sleep waits the poll interval plus jitter, or until shutdown.
func (p *Pool) sleep() {
	delay := p.config.PollInterval
	if p.config.PollJitter > 0 {
		delay += time.Duration(rand.Int63n(int64(p.config.PollJitter)))
	}

	select {
	case <-p.ctx.Done():
	case <-time.After(delay):
	}
}
