package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

// TaskQueue is a bounded FIFO of tasks backed by a buffered channel.
type TaskQueue struct {
	// mu is held for reading while sending so Close cannot close tasks
	// under a sender.
	mu     sync.RWMutex
	closed bool
	tasks  chan Task
	logger *slog.Logger
}

var (
	_ TaskQueueReader = (*TaskQueue)(nil)
	_ TaskQueueWriter = (*TaskQueue)(nil)
)

// NewTaskQueue returns a queue holding up to size tasks. With size 0 a task
// is accepted only while a worker is already waiting.
func NewTaskQueue(size int, logger *slog.Logger) *TaskQueue {
	return &TaskQueue{tasks: make(chan Task, max(size, 0)), logger: logger}
}

func (q *TaskQueue) Enqueue(task Task) error {
	if task == nil {
		return errNilTask
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.tasks <- task:
	default:
		return fmt.Errorf("%w: capacity %d", ErrQueueFull, cap(q.tasks))
	}
	q.logger.Debug("task queued",
		"task_id", task.ID(),
		"task_type", task.Type(),
		"depth", len(q.tasks))
	return nil
}

// Close rejects further Enqueue calls. Queued tasks remain readable.
// Closing twice is harmless.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.tasks)
	q.logger.Info("task queue closed", "pending", len(q.tasks))
}

func (q *TaskQueue) Tasks() <-chan Task { return q.tasks }

// Len is the number of tasks waiting for a worker.
func (q *TaskQueue) Len() int { return len(q.tasks) }
