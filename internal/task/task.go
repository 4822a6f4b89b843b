package task

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

const (
	// TaskTypeSessionAnalysis scores a session that just ended.
	TaskTypeSessionAnalysis = "session_analysis"
	// TaskTypeReanalysis scores a failed report's retained session again.
	TaskTypeReanalysis = "report_reanalysis"
)

// Task is one unit of background work.
type Task interface {
	ID() uuid.UUID
	Type() string
	Execute(ctx context.Context) error
}

// TaskQueueReader is the consuming side of a queue.
type TaskQueueReader interface {
	Tasks() <-chan Task
}

// TaskQueueWriter is the producing side of a queue. Enqueue never blocks.
type TaskQueueWriter interface {
	Enqueue(task Task) error
	Close()
}

var errNilTask = errors.New("task cannot be nil")

// FuncTask runs a closure as a Task.
type FuncTask struct {
	id   uuid.UUID
	kind string
	fn   func(ctx context.Context) error
}

var _ Task = (*FuncTask)(nil)

func NewFuncTask(taskType string, fn func(ctx context.Context) error) (*FuncTask, error) {
	switch {
	case taskType == "":
		return nil, errors.New("task type cannot be empty")
	case fn == nil:
		return nil, errors.New("task function cannot be nil")
	}
	return &FuncTask{id: uuid.New(), kind: taskType, fn: fn}, nil
}

func (t *FuncTask) ID() uuid.UUID                     { return t.id }
func (t *FuncTask) Type() string                      { return t.kind }
func (t *FuncTask) Execute(ctx context.Context) error { return t.fn(ctx) }
