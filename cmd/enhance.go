package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hanbinChen97/find-the-company/internal/export"
	"github.com/hanbinChen97/find-the-company/internal/model"
	"github.com/hanbinChen97/find-the-company/internal/scheduler"
)

var (
	enhanceIn     string
	enhanceOut    string
	enhanceFormat string
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance",
	Short: "Add CEO and co-founder facts to a previously exported table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("enrich"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		table, err := export.ReadCSV(enhanceIn)
		if err != nil {
			return err
		}
		zap.L().Info("table loaded", zap.String("path", enhanceIn), zap.Int("rows", len(table)))

		sched := scheduler.New(newDirectoryClient(), newEnricher(),
			scheduler.WithConcurrency(cfg.Enrich.Concurrency),
			scheduler.WithLocationHint(locationHint()),
		)

		enhanced, phase := drain(sched.Enhance(ctx, table))
		if phase != model.PhaseDone {
			return eris.Errorf("enhance: run ended in phase %s", phase)
		}

		return saveTable(enhanced, enhanceOut, enhanceFormat)
	},
}

func init() {
	enhanceCmd.Flags().StringVar(&enhanceIn, "in", "", "exported CSV to enhance (required)")
	enhanceCmd.Flags().StringVar(&enhanceOut, "out", "", "output path (default from config)")
	enhanceCmd.Flags().StringVar(&enhanceFormat, "format", "", "csv or xlsx (default from config)")
	_ = enhanceCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(enhanceCmd)
}
