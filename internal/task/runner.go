package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/sleepwatch/internal/config"
)

// TaskRunnerConfig sizes the runner's worker pool and queue.
type TaskRunnerConfig struct {
	WorkerCount int
	QueueSize   int
}

func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount: 2,
		QueueSize:   16,
	}
}

// RunnerConfigFrom maps the application task settings onto a runner config.
func RunnerConfigFrom(cfg config.TaskConfig) TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount: cfg.WorkerCount,
		QueueSize:   cfg.QueueSize,
	}
}

// TaskRunner couples a bounded queue with a worker pool.
type TaskRunner struct {
	queue  *TaskQueue
	pool   *WorkerPool
	logger *slog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
}

func NewTaskRunner(config TaskRunnerConfig, logger *slog.Logger) (*TaskRunner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	logger = logger.With("component", "task_runner")

	queue := NewTaskQueue(config.QueueSize, logger)
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: config.WorkerCount}, logger)

	return &TaskRunner{
		queue:  queue,
		pool:   pool,
		logger: logger,
	}, nil
}

// SetErrorHandler must be called before Start.
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.pool.SetErrorHandler(handler)
}

// Submit adds a task to the queue without blocking.
// It fails with ErrQueueFull or ErrQueueClosed.
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.queue.Enqueue(task); err != nil {
		return fmt.Errorf("submit %s task: %w", task.Type(), err)
	}
	return nil
}

// Start launches the workers. It fails once the runner has been stopped.
func (r *TaskRunner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return ErrQueueClosed
	}
	if !r.started {
		r.started = true
		r.pool.Start()
	}
	return nil
}

// Stop closes the queue and waits for queued tasks to finish. If ctx ends
// first, running tasks are cancelled and Stop returns ctx's error once the
// workers have exited.
func (r *TaskRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	started := r.started
	r.mu.Unlock()

	r.queue.Close()
	if !started {
		if n := r.queue.Len(); n > 0 {
			r.logger.Warn("runner stopped before start, dropping queued tasks", "count", n)
		}
		r.pool.Abort()
		return nil
	}

	done := make(chan struct{})
	go func() {
		r.pool.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.pool.Abort()
		r.logger.Info("task runner stopped")
		return nil
	case <-ctx.Done():
		r.logger.Warn("task runner stop deadline reached, cancelling running tasks",
			"pending", r.queue.Len())
		r.pool.Abort()
		<-done
		return ctx.Err()
	}
}
