package main

import (
	"errors"
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/invlocale"
	"github.com/ZaguanLabs/invlocale/cache"
	"github.com/ZaguanLabs/invlocale/internal/di/providers"
)

var errCacheDisabled = errors.New("translation cache is disabled")

func (a *app) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Export or import the translation memo",
	}
	cmd.AddCommand(a.cacheExportCommand(), a.cacheImportCommand())
	return cmd
}

func (a *app) cacheExportCommand() *cobra.Command {
	var (
		output string
		langs  []string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write memo entries as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			locales, err := parseLocaleFilter(langs)
			if err != nil {
				return err
			}
			memo, cleanup, err := a.memo()
			if err != nil {
				return err
			}
			defer cleanup()

			opts := cache.ExportOptions{
				Locales:  locales,
				Metadata: map[string]string{"tool": invlocale.UserAgent()},
			}
			if output == "" {
				_, err := cache.Export(cmd.Context(), memo, a.stdout, opts)
				return err
			}
			n, err := cache.ExportFile(cmd.Context(), memo, output, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stderr, "Exported %d entries to %s\n", n, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringSliceVarP(&langs, "lang", "l", nil, "Only export these target locales")
	return cmd
}

func (a *app) cacheImportCommand() *cobra.Command {
	var (
		langs     []string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "import <export.json>",
		Short: "Load memo entries from an export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			locales, err := parseLocaleFilter(langs)
			if err != nil {
				return err
			}
			memo, cleanup, err := a.memo()
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := cache.ImportFile(cmd.Context(), memo, args[0], cache.ImportOptions{
				Locales:   locales,
				Overwrite: overwrite,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Imported %d entries (%d skipped, %d failed)\n", res.Imported, res.Skipped, res.Failed)
			if res.Failed > 0 {
				return fmt.Errorf("%d entries could not be imported", res.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&langs, "lang", "l", nil, "Only import these target locales")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace entries the memo already holds")
	return cmd
}

// parseLocaleFilter validates --lang values for the memo commands.
func parseLocaleFilter(langs []string) ([]string, error) {
	if len(langs) == 0 {
		return nil, nil
	}
	targets, err := parseTargets(langs)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(targets))
	for i, l := range targets {
		out[i] = string(l)
	}
	return out, nil
}

// memo resolves the configured translation memo.
func (a *app) memo() (invlocale.TranslationCache, func(), error) {
	injector, err := a.container()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = injector.Shutdown() }

	handle, err := do.Invoke[*providers.CacheHandle](injector)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if handle.Cache == nil {
		cleanup()
		return nil, nil, errCacheDisabled
	}
	return handle.Cache, cleanup, nil
}
