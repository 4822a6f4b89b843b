package task

import (
	"context"
	"log/slog"
	"sync"
)

// WorkerPoolConfig sizes a WorkerPool. WorkerCount below 1 means 1.
type WorkerPoolConfig struct {
	WorkerCount int
}

func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{WorkerCount: 2}
}

// WorkerPool runs tasks from a queue on a fixed number of goroutines until
// the queue is closed and empty.
type WorkerPool struct {
	source       TaskQueueReader
	workerCount  int
	errorHandler func(task Task, err error)
	logger       *slog.Logger

	// ctx is passed to every task; Abort cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	once sync.Once
	wg   sync.WaitGroup
}

func NewWorkerPool(source TaskQueueReader, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	n := config.WorkerCount
	if n < 1 {
		logger.Warn("worker count must be positive, using 1", "configured", n)
		n = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		source:      source,
		workerCount: n,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetErrorHandler registers fn to be called for every failed task.
// Call it before Start.
func (p *WorkerPool) SetErrorHandler(fn func(task Task, err error)) {
	p.errorHandler = fn
}

// Start is idempotent.
func (p *WorkerPool) Start() {
	p.once.Do(func() {
		p.logger.Info("worker pool starting", "workers", p.workerCount)
		p.wg.Add(p.workerCount)
		for id := range p.workerCount {
			go p.run(id)
		}
	})
}

func (p *WorkerPool) Wait() { p.wg.Wait() }

// Abort cancels the context of running tasks. Workers still drain the queue.
func (p *WorkerPool) Abort() { p.cancel() }

func (p *WorkerPool) run(id int) {
	defer p.wg.Done()
	for t := range p.source.Tasks() {
		p.execute(id, t)
	}
	p.logger.Debug("worker exiting", "worker_id", id)
}

func (p *WorkerPool) execute(workerID int, t Task) {
	log := p.logger.With("worker_id", workerID, "task_id", t.ID(), "task_type", t.Type())
	defer func() {
		if r := recover(); r != nil {
			log.Error("task panicked", "panic", r)
		}
	}()

	err := t.Execute(p.ctx)
	if err == nil {
		log.Debug("task done")
		return
	}
	log.Error("task failed", "error", err)
	if p.errorHandler != nil {
		p.errorHandler(t, err)
	}
}
