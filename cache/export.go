package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// ExportVersion identifies the dump layout written by Export. Import also
// reads version "1.0" dumps, which lack the locale fields.
const ExportVersion = "2"

// Dump is the JSON document produced by Export.
type Dump struct {
	Version    string            `json:"version"`
	ExportedAt time.Time         `json:"exported_at"`
	Locales    map[string]int    `json:"locales,omitempty"` // entry count per target locale
	Metadata   map[string]string `json:"metadata,omitempty"`
	Entries    []DumpEntry       `json:"entries"`
}

// DumpEntry is one memo entry.
type DumpEntry struct {
	Key    string `json:"key"`
	Locale string `json:"locale,omitempty"`
	Value  string `json:"value"`
}

// ExportOptions narrows and annotates an export.
type ExportOptions struct {
	Locales  []string // target locales to keep; empty keeps all
	Metadata map[string]string
}

// ImportOptions controls how dump entries are merged into a memo.
type ImportOptions struct {
	Locales []string // target locales to load; empty loads all
	// Overwrite replaces entries the memo already holds. Without it such
	// entries are counted as skipped.
	Overwrite bool
}

// ImportResult counts what Import did with each entry of a dump.
type ImportResult struct {
	Version  string
	Metadata map[string]string
	Imported int
	Skipped  int
	Failed   int
}

// KeyLocale returns the target locale encoded in a memo key, the segment
// after the last colon.
func KeyLocale(key string) string {
	if i := strings.LastIndexByte(key, ':'); i >= 0 {
		return key[i+1:]
	}
	return ""
}

// Export writes the live entries of c to w as indented JSON, sorted by key.
// It returns the number of entries written.
func Export(ctx context.Context, c TranslationCache, w io.Writer, opts ExportOptions) (int, error) {
	enum, ok := c.(EnumerableCache)
	if !ok {
		return 0, fmt.Errorf("cache type %T does not support export", c)
	}

	data, err := enum.Entries(ctx)
	if err != nil {
		return 0, fmt.Errorf("list cache entries: %w", err)
	}

	dump := Dump{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC().Truncate(time.Second),
		Locales:    make(map[string]int),
		Metadata:   opts.Metadata,
		Entries:    make([]DumpEntry, 0, len(data)),
	}
	for key, value := range data {
		locale := KeyLocale(key)
		if !wanted(opts.Locales, locale) {
			continue
		}
		dump.Entries = append(dump.Entries, DumpEntry{Key: key, Locale: locale, Value: value})
		dump.Locales[locale]++
	}
	slices.SortFunc(dump.Entries, func(a, b DumpEntry) int { return strings.Compare(a.Key, b.Key) })

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dump); err != nil {
		return 0, fmt.Errorf("encode dump: %w", err)
	}
	return len(dump.Entries), nil
}

// ExportFile writes the dump to path. The file is written next to its
// destination and renamed into place, so readers never see a partial dump.
func ExportFile(ctx context.Context, c TranslationCache, path string, opts ExportOptions) (int, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, fmt.Errorf("create dump file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	n, err := Export(ctx, c, tmp, opts)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("install dump file: %w", err)
	}
	return n, nil
}

// Import loads the entries of a dump read from r into c. Entries that fail
// to store are counted, not fatal; a cancelled ctx stops the import.
func Import(ctx context.Context, c TranslationCache, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	var dump Dump
	if err := json.NewDecoder(r).Decode(&dump); err != nil {
		return nil, fmt.Errorf("decode dump: %w", err)
	}
	switch dump.Version {
	case ExportVersion, "1.0":
	default:
		return nil, fmt.Errorf("unsupported dump version %q", dump.Version)
	}

	res := &ImportResult{Version: dump.Version, Metadata: dump.Metadata}
	for _, e := range dump.Entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		locale := e.Locale
		if locale == "" {
			locale = KeyLocale(e.Key)
		}
		if e.Key == "" || !wanted(opts.Locales, locale) {
			res.Skipped++
			continue
		}
		if !opts.Overwrite {
			if _, ok := c.Get(ctx, e.Key); ok {
				res.Skipped++
				continue
			}
		}
		if err := c.Set(ctx, e.Key, e.Value); err != nil {
			res.Failed++
			continue
		}
		res.Imported++
	}
	return res, nil
}

// ImportFile imports the dump stored at path.
func ImportFile(ctx context.Context, c TranslationCache, path string, opts ImportOptions) (*ImportResult, error) {
	f, err := os.Open(path) // #nosec G304 -- operator-supplied dump path
	if err != nil {
		return nil, fmt.Errorf("open dump file: %w", err)
	}
	defer f.Close()

	return Import(ctx, c, f, opts)
}

func wanted(locales []string, locale string) bool {
	return len(locales) == 0 || slices.Contains(locales, locale)
}
