// Command invlocale maintains listing translations from the command line:
// backfilling missing or stale rows, translating content files and moving the
// translation memo between environments.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/invlocale"
	"github.com/ZaguanLabs/invlocale/internal/config"
	"github.com/ZaguanLabs/invlocale/internal/di"
	"github.com/ZaguanLabs/invlocale/internal/logger"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every command. Empty
// values leave the environment and config file in charge.
type globalOptions struct {
	configFile string
	envFile    string
	dbDriver   string
	dbDSN      string
	backend    string
	cacheKind  string
	verbose    bool
}

// app carries one invocation's streams and options into the commands.
type app struct {
	opts   globalOptions
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "invlocale",
		Short:         invlocale.Description,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.opts.configFile, "config", "", "Path to a .toml or .yaml config file")
	pf.StringVar(&a.opts.envFile, "env-file", ".env", "Path to .env file")
	pf.StringVar(&a.opts.dbDriver, "db-driver", "", "Database driver: sqlite or postgres")
	pf.StringVar(&a.opts.dbDSN, "db-dsn", "", "Database DSN")
	pf.StringVar(&a.opts.backend, "backend", "", "Translation backend: stub or openai")
	pf.StringVar(&a.opts.cacheKind, "cache", "", "Translation memo: memory, redis or none")
	pf.BoolVarP(&a.opts.verbose, "verbose", "v", false, "Log progress to stderr")

	root.AddCommand(
		a.versionCommand(),
		a.backfillCommand(),
		a.translateCommand(),
		a.hashCommand(),
		a.diffCommand(),
		a.cacheCommand(),
	)

	return root.ExecuteContext(context.Background())
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b := invlocale.BuildInfo()
			fmt.Fprintf(a.stdout, "%s %s\n", invlocale.Name, b)
			if b.Commit != "" {
				fmt.Fprintf(a.stdout, "  commit:  %s\n", b.Commit)
			}
			if b.Date != "" {
				fmt.Fprintf(a.stdout, "  built:   %s\n", b.Date)
			}
			fmt.Fprintf(a.stdout, "  go:      %s\n", b.GoVersion)
			return nil
		},
	}
}

// loadConfig resolves configuration with the persistent flags on top.
func (a *app) loadConfig() (*config.Config, error) {
	args := []string{"-env-file", a.opts.envFile}
	for _, f := range []struct{ name, value string }{
		{"config", a.opts.configFile},
		{"db-driver", a.opts.dbDriver},
		{"db-dsn", a.opts.dbDSN},
		{"backend", a.opts.backend},
		{"cache", a.opts.cacheKind},
	} {
		if f.value != "" {
			args = append(args, "-"+f.name, f.value)
		}
	}
	return config.Load(args)
}

// container builds the dependency graph. Logs go to stderr and stay at warn
// unless --verbose is set.
func (a *app) container() (*do.RootScope, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	level := logger.ParseLevel("warn")
	if a.opts.verbose {
		level = logger.ParseLevel(cfg.Logger.Level)
	}
	log := logger.New(logger.Config{
		Writer:      a.stderr,
		Level:       level,
		Environment: cfg.App.Environment,
	})

	return di.NewToolContainer(cfg, log), nil
}

// readInput reads the named file, or stdin when no name is given.
func (a *app) readInput(args []string) ([]byte, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return nil, "", fmt.Errorf("reading stdin: %w", err)
		}
		return data, "stdin", nil
	}

	data, err := os.ReadFile(args[0]) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return nil, "", fmt.Errorf("reading file: %w", err)
	}
	return data, filepath.Base(args[0]), nil
}

// readContent decodes a listing's translatable content from JSON.
func (a *app) readContent(args []string) (invlocale.TranslatableContent, string, error) {
	var content invlocale.TranslatableContent

	data, name, err := a.readInput(args)
	if err != nil {
		return content, "", err
	}
	if err := json.Unmarshal(data, &content); err != nil {
		return content, "", fmt.Errorf("parsing %s: %w", name, err)
	}
	return content, name, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
