// Package di provides dependency injection configuration for the listing
// service and its tools.
package di

import (
	"github.com/samber/do/v2"

	"github.com/ZaguanLabs/invlocale"
	"github.com/ZaguanLabs/invlocale/internal/api"
	"github.com/ZaguanLabs/invlocale/internal/config"
	"github.com/ZaguanLabs/invlocale/internal/di/providers"
	"github.com/ZaguanLabs/invlocale/internal/investment"
	"github.com/ZaguanLabs/invlocale/internal/logger"
	"github.com/ZaguanLabs/invlocale/internal/reconcile"
)

// NewContainer creates the DI container with configuration loaded from the
// process flags and environment.
func NewContainer() *do.RootScope {
	injector := do.New()
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	register(injector)
	return injector
}

// NewContainerWithConfig creates the DI container around an already loaded
// configuration.
func NewContainerWithConfig(cfg *config.Config) *do.RootScope {
	injector := do.New()
	do.ProvideValue(injector, cfg)
	do.Provide(injector, providers.ProvideLogger)
	register(injector)
	return injector
}

// NewToolContainer creates a container for command line tools, which bring
// their own logger so stdout stays free for command output.
func NewToolContainer(cfg *config.Config, log *logger.Logger) *do.RootScope {
	injector := do.New()
	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, log)
	register(injector)
	return injector
}

func register(injector *do.RootScope) {
	do.Provide(injector, providers.ProvideValidator)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Translation layer
	do.Provide(injector, providers.ProvideCache)
	do.Provide(injector, providers.ProvideBackend)
	do.Provide(injector, providers.ProvideTranslator)

	// Reconciliation
	do.Provide(injector, providers.ProvideReconciler)
	do.Provide(injector, providers.ProvideWorkerPool)
	do.Provide(injector, providers.ProvideScheduler)

	// Business services
	do.Provide(injector, providers.ProvideInvestmentService)

	// Server
	do.Provide(injector, providers.ProvideHandler)
	do.Provide(injector, providers.ProvideHTTPServer)
}

// Bootstrap initializes every service the HTTP server needs and starts it.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.CacheHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[invlocale.Backend](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*invlocale.Translator](injector)
	_ = do.MustInvoke[*reconcile.Reconciler](injector)
	_ = do.MustInvoke[*providers.WorkerPoolHandle](injector)
	_ = do.MustInvoke[*reconcile.Scheduler](injector)
	_ = do.MustInvoke[*investment.Service](injector)
	_ = do.MustInvoke[*api.Server](injector)

	_, err := do.Invoke[*providers.HTTPServerHandle](injector)
	return err
}
