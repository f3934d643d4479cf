package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/invlocale"
	"github.com/ZaguanLabs/invlocale/processor"
)

func (a *app) translateCommand() *cobra.Command {
	var (
		langs  []string
		dryRun bool
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "translate [content.json]",
		Short: "Translate listing content read from a JSON file or stdin",
		Long: `Translate listing content into one or more locales and print the
translated content as JSON, keyed by locale. Without --lang every
non-source locale is produced.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, name, err := a.readContent(args)
			if err != nil {
				return err
			}

			targets, err := parseTargets(langs)
			if err != nil {
				return err
			}

			if dryRun {
				return a.translateDryRun(content, name, targets)
			}

			injector, err := a.container()
			if err != nil {
				return err
			}
			defer func() { _ = injector.Shutdown() }()

			translator, err := do.Invoke[*invlocale.Translator](injector)
			if err != nil {
				return err
			}

			if !quiet {
				fmt.Fprintf(a.stderr, "Translating %s to %s...\n", name, joinLocales(targets))
			}

			start := time.Now()
			out := make(map[invlocale.Locale]*invlocale.TranslatedContent, len(targets))
			for _, lang := range targets {
				translated, err := translator.Translate(cmd.Context(), content, lang)
				if err != nil {
					return fmt.Errorf("translation to %s failed: %w", lang, err)
				}
				out[lang] = translated
			}

			if !quiet {
				fmt.Fprintf(a.stderr, "Done in %v\n", time.Since(start).Round(time.Millisecond))
			}
			return writeJSON(a.stdout, out)
		},
	}

	cmd.Flags().StringSliceVarP(&langs, "lang", "l", nil, "Target locales (e.g. hr,de-AT); default: all non-source locales")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the strings that would be sent without calling the backend")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	return cmd
}

// translateDryRun lists the distinct strings a translation would send.
func (a *app) translateDryRun(content invlocale.TranslatableContent, name string, targets []invlocale.Locale) error {
	texts := []string{content.Title, content.Description, content.Category}
	texts = append(texts, content.Tags...)

	if content.LongDescription != "" {
		_, nodes, err := processor.NewHTMLProcessor().Extract(content.LongDescription)
		if err != nil {
			return fmt.Errorf("extracting long description: %w", err)
		}
		for _, n := range nodes {
			texts = append(texts, n.Text)
		}
	}

	seen := make(map[string]bool, len(texts))
	var unique []string
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		unique = append(unique, t)
	}

	fmt.Fprintf(a.stdout, "Dry run: %s -> %s\n", name, joinLocales(targets))
	fmt.Fprintf(a.stdout, "Found %d translatable strings:\n\n", len(unique))
	for i, text := range unique {
		if len(text) > 60 {
			text = text[:57] + "..."
		}
		fmt.Fprintf(a.stdout, "%3d. %q\n", i+1, text)
	}
	return nil
}

func (a *app) hashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [content.json]",
		Short: "Print the source hash of listing content",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			content, _, err := a.readContent(args)
			if err != nil {
				return err
			}
			hash, err := invlocale.ComputeHash(content)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, hash)
			return nil
		},
	}
}

func (a *app) diffCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "diff <previous.json> <current.json>",
		Short: "Show which translatable fields changed between two versions",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			previous, _, err := a.readContent(args[:1])
			if err != nil {
				return err
			}
			current, _, err := a.readContent(args[1:])
			if err != nil {
				return err
			}

			diff := invlocale.DiffContent(previous, current)
			oldHash, err := invlocale.ComputeHash(previous)
			if err != nil {
				return err
			}
			newHash, err := invlocale.ComputeHash(current)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(a.stdout, struct {
					Changed      []string `json:"changed"`
					AddedTags    []string `json:"addedTags,omitempty"`
					RemovedTags  []string `json:"removedTags,omitempty"`
					PreviousHash string   `json:"previousHash"`
					CurrentHash  string   `json:"currentHash"`
					Retranslate  bool     `json:"retranslate"`
				}{
					Changed:      nonNilStrings(diff.Changed),
					AddedTags:    diff.AddedTags,
					RemovedTags:  diff.RemovedTags,
					PreviousHash: oldHash,
					CurrentHash:  newHash,
					Retranslate:  diff.HasChanges(),
				})
			}

			if !diff.HasChanges() {
				fmt.Fprintln(a.stdout, "No changes detected. All translations are up to date.")
				return nil
			}

			fmt.Fprintf(a.stdout, "Changed fields: %s\n", strings.Join(diff.Changed, ", "))
			for _, tag := range diff.AddedTags {
				fmt.Fprintf(a.stdout, "  + %q\n", tag)
			}
			for _, tag := range diff.RemovedTags {
				fmt.Fprintf(a.stdout, "  - %q\n", tag)
			}
			fmt.Fprintf(a.stdout, "Source hash: %s -> %s\n", short(oldHash), short(newHash))
			fmt.Fprintln(a.stdout, "Machine translations will be regenerated on save.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output result as JSON")
	return cmd
}

// parseTargets resolves --lang values, defaulting to every non-source locale.
func parseTargets(langs []string) ([]invlocale.Locale, error) {
	if len(langs) == 0 {
		return invlocale.NonSourceLocales(), nil
	}

	var out []invlocale.Locale
	seen := make(map[invlocale.Locale]bool)
	for _, code := range langs {
		l, ok := invlocale.LookupLocale(code)
		if !ok {
			return nil, fmt.Errorf("unsupported locale %q", code)
		}
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out, nil
}

func joinLocales(locales []invlocale.Locale) string {
	parts := make([]string, len(locales))
	for i, l := range locales {
		parts[i] = l.String()
	}
	return strings.Join(parts, ", ")
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
