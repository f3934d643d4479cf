package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ZaguanLabs/invlocale"
)

// Task is a unit of background work.
type Task func(ctx context.Context)

// Dispatcher runs tasks outside the caller's request.
type Dispatcher interface {
	Dispatch(name string, task Task)
}

// PoolConfig configures a WorkerPool.
type PoolConfig struct {
	Workers     int           // default: 2
	QueueSize   int           // default: 100
	TaskTimeout time.Duration // 0 disables the bound
}

// WorkerPool runs tasks on a fixed set of workers fed by a bounded queue.
// When the queue is full a task runs on its own goroutine, so Dispatch never
// blocks and no task is dropped while the pool is running.
type WorkerPool struct {
	config PoolConfig
	logger *slog.Logger

	ctx    context.Context //nolint:containedctx // Context needed for worker lifecycle management
	cancel context.CancelFunc
	queue  chan namedTask
	wg     sync.WaitGroup

	mu      sync.RWMutex
	started bool
	stopped bool
}

type namedTask struct {
	name string
	run  Task
}

// NewWorkerPool creates a pool. Call Start before dispatching.
func NewWorkerPool(cfg PoolConfig, logger *slog.Logger) *WorkerPool {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		config: cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		queue:  make(chan namedTask, cfg.QueueSize),
	}
}

// Start launches the workers.
func (p *WorkerPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true

	p.logger.Info("starting reconciliation workers",
		slog.Int("workers", p.config.Workers),
		slog.Int("queue_size", p.config.QueueSize),
	)
	for i := range p.config.Workers {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Dispatch queues task. After Shutdown tasks are dropped with a warning.
func (p *WorkerPool) Dispatch(name string, task Task) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		p.logger.Warn("worker pool stopped, dropping task", slog.String("task", name))
		return
	}

	select {
	case p.queue <- namedTask{name: name, run: task}:
	default:
		p.logger.Warn("reconciliation queue full, running task inline", slog.String("task", name))
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(namedTask{name: name, run: task})
		}()
	}
}

// Shutdown stops accepting tasks and waits for queued and running ones.
// When ctx ends first, running tasks are cancelled and ctx's error returned.
func (p *WorkerPool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.queue)
	started := p.started
	p.mu.Unlock()

	if !started {
		// Drain what was queued before Start.
		for t := range p.queue {
			p.run(t)
		}
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("reconciliation workers stopped")
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}

// Pending returns the number of queued tasks.
func (p *WorkerPool) Pending() int {
	return len(p.queue)
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("reconciliation worker started", slog.Int("worker_id", id))
	for t := range p.queue {
		p.run(t)
	}
	p.logger.Debug("reconciliation worker stopping", slog.Int("worker_id", id))
}

func (p *WorkerPool) run(t namedTask) {
	ctx := p.ctx
	if p.config.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.TaskTimeout)
		defer cancel()
	}
	runTask(ctx, p.logger, t)
}

func runTask(ctx context.Context, logger *slog.Logger, t namedTask) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("task panicked",
				slog.String("task", t.name),
				slog.String("panic", fmt.Sprint(r)),
			)
		}
	}()

	t.run(ctx)
	logger.Debug("task finished",
		slog.String("task", t.name),
		slog.Duration("duration", time.Since(start)),
	)
}

// InlineDispatcher runs every task before Dispatch returns.
type InlineDispatcher struct {
	Logger *slog.Logger
}

// Dispatch implements Dispatcher.
func (d InlineDispatcher) Dispatch(name string, task Task) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runTask(context.Background(), logger, namedTask{name: name, run: task})
}

// Scheduler hands reconciler transitions to a Dispatcher so callers never
// wait for translation.
type Scheduler struct {
	reconciler *Reconciler
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(r *Reconciler, d Dispatcher, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{reconciler: r, dispatcher: d, logger: logger}
}

// ScheduleCreate queues the Create transition.
func (s *Scheduler) ScheduleCreate(entityID string, content invlocale.TranslatableContent) {
	s.schedule("create", entityID, content, s.reconciler.Create)
}

// ScheduleEdit queues the Edit transition.
func (s *Scheduler) ScheduleEdit(entityID string, content invlocale.TranslatableContent) {
	s.schedule("edit", entityID, content, s.reconciler.Edit)
}

// Reconciler returns the wrapped reconciler for synchronous use.
func (s *Scheduler) Reconciler() *Reconciler {
	return s.reconciler
}

type transition func(context.Context, string, invlocale.TranslatableContent) (*Result, error)

func (s *Scheduler) schedule(op, entityID string, content invlocale.TranslatableContent, fn transition) {
	content.Tags = append([]string(nil), content.Tags...)

	s.dispatcher.Dispatch(op+":"+entityID, func(ctx context.Context) {
		if _, err := fn(ctx, entityID, content); err != nil {
			s.logger.Error("reconciliation failed",
				slog.String("op", op),
				slog.String("investment_id", entityID),
				slog.Any("error", err),
			)
		}
	})
}
