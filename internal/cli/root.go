// Package cli implements sheetctl, the command-line companion to the server:
// it fetches and inspects the published sheet and manages the snapshot cache
// using the same configuration as the server.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/banboard/internal/config"
	"github.com/JonMunkholm/banboard/internal/fetch"
	"github.com/JonMunkholm/banboard/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Deps are the collaborators commands use. Zero values select the real
// environment and HTTP fetcher.
type Deps struct {
	Getenv  func(string) string
	Fetcher fetch.Fetcher
}

// globalFlags are shared by every command.
type globalFlags struct {
	format    string
	url       string
	backend   string
	cachePath string
	verbose   bool
}

// app carries state from the root command to subcommands.
type app struct {
	deps  Deps
	flags globalFlags
}

// NewRootCmd builds the sheetctl command tree.
func NewRootCmd(deps Deps) *cobra.Command {
	if deps.Getenv == nil {
		deps.Getenv = os.Getenv
	}
	a := &app{deps: deps}

	root := &cobra.Command{
		Use:   "sheetctl",
		Short: "Fetch, inspect and cache the published ban sheet",
		Long: `sheetctl works with the published ban-list spreadsheet the dashboard serves.

It reads the same environment variables as the server (SHEET_URL, CACHE_BACKEND,
CACHE_PATH, ...) and a .env file in the working directory when present.

Quick Start:
  sheetctl inspect                 # show delimiter, header and record counts
  sheetctl fetch --format yaml     # fetch and normalize, bypassing the cache
  sheetctl show                    # records through the cache (12h TTL)
  sheetctl refresh                 # force a refetch into the cache`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.format != formatJSON && a.flags.format != formatYAML {
				return fmt.Errorf("unsupported format %q (want json or yaml)", a.flags.format)
			}
			level := "warn"
			if a.flags.verbose {
				level = "debug"
			}
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), level, "text"))
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.format, "format", "f", formatJSON, "Output format: json or yaml")
	pf.StringVar(&a.flags.url, "url", "", "Sheet export URL (overrides SHEET_URL)")
	pf.StringVar(&a.flags.backend, "backend", "", "Snapshot backend: file, postgres, sqlite, memory (overrides CACHE_BACKEND)")
	pf.StringVar(&a.flags.cachePath, "cache-path", "", "Snapshot file for the file backend (overrides CACHE_PATH)")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "Enable debug logging on stderr")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		a.newFetchCmd(),
		a.newInspectCmd(),
		a.newShowCmd(),
		a.newRefreshCmd(),
		a.newStatusCmd(),
	)
	return root
}

// loadConfig reads configuration with command-line flags layered over the
// environment.
func (a *app) loadConfig() (*config.Config, error) {
	overrides := map[string]string{
		"SHEET_URL":     a.flags.url,
		"CACHE_BACKEND": a.flags.backend,
		"CACHE_PATH":    a.flags.cachePath,
	}
	cfg, err := config.LoadFunc(func(key string) string {
		if v := overrides[key]; v != "" {
			return v
		}
		return a.deps.Getenv(key)
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Execute runs sheetctl and returns the process exit code.
func Execute() int {
	// A missing .env is normal; the environment is used as is.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd(Deps{})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// out returns the command's stdout writer.
func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
