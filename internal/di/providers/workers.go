package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/ZaguanLabs/invlocale"
	"github.com/ZaguanLabs/invlocale/internal/config"
	"github.com/ZaguanLabs/invlocale/internal/logger"
	"github.com/ZaguanLabs/invlocale/internal/reconcile"
)

// ProvideReconciler provides the translation reconciler.
func ProvideReconciler(i do.Injector) (*reconcile.Reconciler, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	translator := do.MustInvoke[*invlocale.Translator](i)

	return reconcile.New(storeHandle.Store, translator,
		reconcile.WithConcurrency(cfg.Translation.Concurrency),
		reconcile.WithLogger(log.Logger),
	), nil
}

// WorkerPoolHandle wraps the reconciliation worker pool.
type WorkerPoolHandle struct {
	*reconcile.WorkerPool
}

// Shutdown implements do.Shutdownable. Queued reconciliations get
// shutdownTimeout to finish.
func (h *WorkerPoolHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.WorkerPool.Shutdown(ctx)
}

// ProvideWorkerPool provides the started reconciliation worker pool.
func ProvideWorkerPool(i do.Injector) (*WorkerPoolHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	pool := reconcile.NewWorkerPool(reconcile.PoolConfig{
		Workers:     cfg.Translation.Workers,
		QueueSize:   cfg.Translation.QueueSize,
		TaskTimeout: cfg.Translation.TaskTimeout,
	}, log.Logger)
	pool.Start()

	return &WorkerPoolHandle{WorkerPool: pool}, nil
}

// ProvideScheduler provides the background reconciliation scheduler.
func ProvideScheduler(i do.Injector) (*reconcile.Scheduler, error) {
	log := do.MustInvoke[*logger.Logger](i)
	rec := do.MustInvoke[*reconcile.Reconciler](i)
	pool := do.MustInvoke[*WorkerPoolHandle](i)

	return reconcile.NewScheduler(rec, pool.WorkerPool, log.Logger), nil
}
