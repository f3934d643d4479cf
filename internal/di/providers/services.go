package providers

import (
	"github.com/samber/do/v2"

	"github.com/ZaguanLabs/invlocale/internal/investment"
	"github.com/ZaguanLabs/invlocale/internal/logger"
	"github.com/ZaguanLabs/invlocale/internal/reconcile"
	"github.com/ZaguanLabs/invlocale/internal/validation"
)

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideInvestmentService provides the listing service.
func ProvideInvestmentService(i do.Injector) (*investment.Service, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	scheduler := do.MustInvoke[*reconcile.Scheduler](i)
	v := do.MustInvoke[*validation.Validator](i)

	return investment.NewService(storeHandle.Store, scheduler, scheduler.Reconciler(), v, log.Logger), nil
}
