package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/JonMunkholm/banboard/internal/bootstrap"
	"github.com/JonMunkholm/banboard/internal/config"
	"github.com/JonMunkholm/banboard/internal/fetch"
	"github.com/JonMunkholm/banboard/internal/sheet"
	"github.com/spf13/cobra"
)

// Summary describes how a sheet export was parsed.
type Summary struct {
	Source       string         `json:"source" yaml:"source"`
	Delimiter    string         `json:"delimiter" yaml:"delimiter"`
	HeaderFound  bool           `json:"header_found" yaml:"header_found"`
	Header       []string       `json:"header,omitempty" yaml:"header,omitempty"`
	PreambleRows int            `json:"preamble_rows" yaml:"preamble_rows"`
	Records      int            `json:"records" yaml:"records"`
	Sample       []sheet.Record `json:"sample,omitempty" yaml:"sample,omitempty"`
}

func summarize(source string, res sheet.Result, sample int) Summary {
	s := Summary{
		Source:       source,
		Delimiter:    string(res.Delimiter),
		HeaderFound:  res.HeaderFound,
		Header:       res.Header,
		PreambleRows: res.Skipped,
		Records:      len(res.Records),
	}
	if sample > len(res.Records) {
		sample = len(res.Records)
	}
	if sample > 0 {
		s.Sample = res.Records[:sample]
	}
	return s
}

func (a *app) fetcher(cfg *config.Config) fetch.Fetcher {
	if a.deps.Fetcher != nil {
		return a.deps.Fetcher
	}
	return bootstrap.NewFetcher(cfg.Sheet)
}

// fetchAndParse retrieves the export, or reads file when set, and parses it
// with the configured options.
func (a *app) fetchAndParse(ctx context.Context, cfg *config.Config, file string) (string, sheet.Result, error) {
	source := cfg.Sheet.URL
	var raw string

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", sheet.Result{}, fmt.Errorf("read %s: %w", file, err)
		}
		source, raw = file, string(data)
	} else {
		var err error
		raw, err = a.fetcher(cfg).Fetch(ctx, cfg.Sheet.URL)
		if err != nil {
			return "", sheet.Result{}, fmt.Errorf("fetch sheet: %w", err)
		}
	}

	res, err := sheet.Parse(raw, bootstrap.ParseOptions(cfg.Sheet))
	if err != nil {
		return "", sheet.Result{}, fmt.Errorf("normalize sheet: %w", err)
	}
	return source, res, nil
}

func (a *app) newFetchCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch and normalize the sheet without touching the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			_, res, err := a.fetchAndParse(cmd.Context(), cfg, file)
			if err != nil {
				return err
			}
			return render(out(cmd), a.flags.format, res.Records)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Parse a local CSV export instead of fetching")
	return cmd
}

func (a *app) newInspectCmd() *cobra.Command {
	var (
		file   string
		sample int
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the detected delimiter, header row and record count",
		Long: `Inspect fetches the sheet (or reads --file) and reports how it was parsed:
the delimiter chosen, whether the header row was found, how many rows preceded
it, and a sample of the resulting records.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			source, res, err := a.fetchAndParse(cmd.Context(), cfg, file)
			if err != nil {
				return err
			}
			return render(out(cmd), a.flags.format, summarize(source, res, sample))
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Parse a local CSV export instead of fetching")
	cmd.Flags().IntVarP(&sample, "sample", "n", 3, "Number of records to include")
	return cmd
}
