package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hanbinChen97/find-the-company/internal/scheduler"
	"github.com/hanbinChen97/find-the-company/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for enrichment runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Collaborators are shared; each API run gets its own scheduler
		// because a scheduler instance owns one run's state.
		details := newDirectoryClient()
		enricher := newEnricher()
		srv := server.New(func() server.Runner {
			return scheduler.New(details, enricher,
				scheduler.WithConcurrency(cfg.Enrich.Concurrency),
				scheduler.WithLocationHint(locationHint()),
			)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		return srv.Start(ctx, fmt.Sprintf(":%d", port))
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
