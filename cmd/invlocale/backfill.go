package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/invlocale"
	"github.com/ZaguanLabs/invlocale/internal/di/providers"
	"github.com/ZaguanLabs/invlocale/internal/domain"
	"github.com/ZaguanLabs/invlocale/internal/reconcile"
	"github.com/ZaguanLabs/invlocale/internal/store"
)

// backfillSummary totals a backfill run.
type backfillSummary struct {
	Investments int `json:"investments"`
	Translated  int `json:"translated"`
	Skipped     int `json:"skipped"`
	UpToDate    int `json:"upToDate"`
	Failed      int `json:"failed"`
	Missing     int `json:"missing"`
}

func (a *app) backfillCommand() *cobra.Command {
	var (
		ids    []string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Generate missing and stale machine translations",
		Long: `Repair the translation set of every stored investment, or of the
ones named with --ids. Locales whose machine row is absent or was
generated from older content are translated again; human rows and rows
already matching the current content are left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			injector, err := a.container()
			if err != nil {
				return err
			}
			defer func() { _ = injector.Shutdown() }()

			storeHandle, err := do.Invoke[*providers.StoreHandle](injector)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if len(ids) == 0 {
				if ids, err = storeHandle.ListInvestmentIDs(ctx); err != nil {
					return fmt.Errorf("listing investments: %w", err)
				}
			}

			var summary backfillSummary
			if dryRun {
				summary, err = a.planBackfill(ctx, storeHandle.Store, ids)
			} else {
				var rec *reconcile.Reconciler
				if rec, err = do.Invoke[*reconcile.Reconciler](injector); err != nil {
					return err
				}
				summary, err = a.runBackfill(ctx, storeHandle.Store, rec, ids)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "\n%d investments: %d translated, %d up to date, %d human, %d failed",
				summary.Investments, summary.Translated, summary.UpToDate, summary.Skipped, summary.Failed)
			if summary.Missing > 0 {
				fmt.Fprintf(a.stdout, ", %d not found", summary.Missing)
			}
			fmt.Fprintln(a.stdout)

			if summary.Failed > 0 {
				return fmt.Errorf("%d translations failed", summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&ids, "ids", nil, "Investment ids to repair (default: all)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be translated without calling the backend")
	return cmd
}

type investmentLoader interface {
	GetInvestment(ctx context.Context, id string) (*domain.Investment, error)
}

type repairer interface {
	Repair(ctx context.Context, entityID string, content invlocale.TranslatableContent) (*reconcile.Result, error)
}

// runBackfill repairs each investment in turn. An investment that cannot be
// loaded or repaired is reported and counted as failed; the run goes on
// with the next one unless ctx ends.
func (a *app) runBackfill(ctx context.Context, s investmentLoader, rec repairer, ids []string) (backfillSummary, error) {
	var summary backfillSummary

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		inv, err := s.GetInvestment(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintf(a.stdout, "%s: not found\n", id)
			summary.Missing++
			continue
		}
		if err != nil {
			fmt.Fprintf(a.stdout, "%s: load failed: %v\n", id, err)
			summary.Failed++
			continue
		}

		res, err := rec.Repair(ctx, id, inv.Content())
		if err != nil {
			fmt.Fprintf(a.stdout, "%s: repair failed: %v\n", id, err)
			summary.Failed++
			continue
		}

		summary.Investments++
		summary.Translated += len(res.Translated)
		summary.Skipped += len(res.Skipped)
		summary.UpToDate += len(res.UpToDate)
		summary.Failed += len(res.Failed)

		line := fmt.Sprintf("%s: %s -> %s translated=[%s]", id, res.Previous, res.State, joinLocales(res.Translated))
		if len(res.Failed) > 0 {
			line += " failed=[" + joinFailures(res.Failed) + "]"
		}
		fmt.Fprintln(a.stdout, line)
	}

	return summary, nil
}

// planBackfill classifies every locale of every investment without writing.
func (a *app) planBackfill(ctx context.Context, s *store.Store, ids []string) (backfillSummary, error) {
	var summary backfillSummary

	for _, id := range ids {
		inv, err := s.GetInvestment(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintf(a.stdout, "%s: not found\n", id)
			summary.Missing++
			continue
		}
		if err != nil {
			return summary, fmt.Errorf("loading %s: %w", id, err)
		}

		hash, err := invlocale.ComputeHash(inv.Content())
		if err != nil {
			return summary, err
		}

		var pending []invlocale.Locale
		for _, lang := range invlocale.NonSourceLocales() {
			record, err := s.GetTranslation(ctx, id, lang)
			if err != nil {
				return summary, fmt.Errorf("loading %s/%s: %w", id, lang, err)
			}
			switch {
			case record != nil && record.Quality == invlocale.QualityHuman:
				summary.Skipped++
			case record != nil && record.SourceHash == hash:
				summary.UpToDate++
			default:
				pending = append(pending, lang)
			}
		}

		summary.Investments++
		if len(pending) > 0 {
			fmt.Fprintf(a.stdout, "%s: would translate [%s]\n", id, joinLocales(pending))
		}
	}

	return summary, nil
}

func joinFailures(failed map[invlocale.Locale]error) string {
	parts := make([]string, 0, len(failed))
	for lang, err := range failed {
		parts = append(parts, fmt.Sprintf("%s: %v", lang, err))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
