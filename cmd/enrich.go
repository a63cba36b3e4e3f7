package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hanbinChen97/find-the-company/internal/export"
	"github.com/hanbinChen97/find-the-company/internal/model"
	"github.com/hanbinChen97/find-the-company/internal/scheduler"
)

var (
	enrichNames         string
	enrichCSV           string
	enrichFromDirectory bool
	enrichLimit         int
	enrichConcurrency   int
	enrichExecutives    bool
	enrichOut           string
	enrichFormat        string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run the enrichment batch and export the result table",
	Long: `Enriches a company list through the answer API, optionally merging
directory profile facts first.

Examples:
  # Names from a file, one per line
  find-the-company enrich --names companies.txt --out results.csv

  # Whole directory, profile scrape plus answer API, 8 workers
  find-the-company enrich --from-directory --limit 50 --concurrency 8

  # Include the executive pass and write XLSX
  find-the-company enrich --names companies.txt --executives --format xlsx --out results.xlsx`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("enrich"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		identifiers, mode, err := enrichInput(ctx)
		if err != nil {
			return err
		}

		opts := []scheduler.Option{scheduler.WithLocationHint(locationHint())}
		concurrency := enrichConcurrency
		if concurrency == 0 {
			concurrency = cfg.Enrich.Concurrency
		}
		opts = append(opts, scheduler.WithConcurrency(concurrency))

		sched := scheduler.New(newDirectoryClient(), newEnricher(), opts...)

		table, phase := drain(sched.Run(ctx, identifiers, mode))
		if phase != model.PhaseDone {
			return eris.Errorf("enrich: run ended in phase %s", phase)
		}

		if enrichExecutives {
			zap.L().Info("starting executive pass")
			table, phase = drain(sched.Enhance(ctx, table))
			if phase != model.PhaseDone {
				return eris.Errorf("enrich: executive pass ended in phase %s", phase)
			}
		}

		return saveTable(table, enrichOut, enrichFormat)
	},
}

// enrichInput builds the identifier sequence from whichever source flag was
// given. Exactly one source is allowed.
func enrichInput(ctx context.Context) ([]model.Identifier, scheduler.Mode, error) {
	sources := 0
	for _, set := range []bool{enrichNames != "", enrichCSV != "", enrichFromDirectory} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return nil, "", eris.New("enrich: exactly one of --names, --csv, --from-directory is required")
	}

	if enrichFromDirectory {
		if err := cfg.Validate("list"); err != nil {
			return nil, "", err
		}
		entries, err := newDirectoryClient().List(ctx, enrichLimit)
		if err != nil {
			return nil, "", eris.Wrap(err, "enrich: list directory")
		}
		return model.IdentifiersFromEntries(entries), scheduler.ModeFull, nil
	}

	path := enrichNames
	if enrichCSV != "" {
		path = enrichCSV
	}
	names, err := readNames(path, enrichCSV != "")
	if err != nil {
		return nil, "", err
	}
	return model.NewIdentifiers(names), scheduler.ModeSearch, nil
}

// readNames reads one company name per line. In CSV mode the file is
// parsed as CSV so quoted names survive intact; only the first column
// counts and a leading "name" header row is skipped.
func readNames(path string, csvMode bool) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: open names file")
	}
	defer f.Close() //nolint:errcheck

	if csvMode {
		cr := csv.NewReader(f)
		cr.FieldsPerRecord = -1
		records, err := cr.ReadAll()
		if err != nil {
			return nil, eris.Wrap(err, "enrich: parse names csv")
		}
		names := make([]string, 0, len(records))
		for i, rec := range records {
			if len(rec) == 0 {
				continue
			}
			name := strings.TrimSpace(rec[0])
			if i == 0 && strings.EqualFold(name, "name") {
				continue
			}
			names = append(names, name)
		}
		return names, nil
	}

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		names = append(names, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "enrich: read names file")
	}
	return names, nil
}

// drain consumes a snapshot stream, logging progress as entries complete,
// and returns the final table and phase.
func drain(snapshots <-chan model.Snapshot) (model.ResultTable, model.Phase) {
	var last model.Snapshot
	completed := -1
	for snap := range snapshots {
		if snap.Progress.Completed != completed {
			completed = snap.Progress.Completed
			zap.L().Info("progress",
				zap.Int("completed", snap.Progress.Completed),
				zap.Int("total", snap.Progress.Total),
				zap.Int("percent", snap.Progress.Percent),
				zap.String("current", snap.Progress.Current),
			)
		}
		last = snap
	}
	return last.Table, last.Progress.Phase
}

// saveTable exports the table to path in the requested format, falling back
// to config defaults when flags are unset.
func saveTable(table model.ResultTable, out, format string) error {
	if out == "" {
		out = cfg.Export.Path
	}
	if format == "" {
		format = cfg.Export.Format
	}

	var err error
	switch format {
	case "csv":
		err = export.SaveCSV(out, table)
	case "xlsx":
		err = export.SaveXLSX(out, table)
	default:
		return eris.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return err
	}

	zap.L().Info("table exported", zap.String("path", out), zap.Int("rows", len(table)))
	return nil
}

func init() {
	enrichCmd.Flags().StringVar(&enrichNames, "names", "", "file with one company name per line")
	enrichCmd.Flags().StringVar(&enrichCSV, "csv", "", "CSV file, company names in the first column")
	enrichCmd.Flags().BoolVar(&enrichFromDirectory, "from-directory", false, "enrich companies from the directory listing")
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 25, "directory listing limit (with --from-directory)")
	enrichCmd.Flags().IntVar(&enrichConcurrency, "concurrency", 0, "worker count (default from config)")
	enrichCmd.Flags().BoolVar(&enrichExecutives, "executives", false, "run the CEO/co-founder pass after enrichment")
	enrichCmd.Flags().StringVar(&enrichOut, "out", "", "output path (default from config)")
	enrichCmd.Flags().StringVar(&enrichFormat, "format", "", "csv or xlsx (default from config)")
	rootCmd.AddCommand(enrichCmd)
}
