package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hanbinChen97/find-the-company/internal/cache"
	"github.com/hanbinChen97/find-the-company/internal/config"
	"github.com/hanbinChen97/find-the-company/internal/directory"
	"github.com/hanbinChen97/find-the-company/internal/enrich"
	"github.com/hanbinChen97/find-the-company/internal/markup"
	"github.com/hanbinChen97/find-the-company/internal/model"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "find-the-company",
	Short: "Bounded-concurrency company enrichment",
	Long:  "Scrapes a membership directory, enriches companies through a natural-language answer API, and merges partial facts into one ordered result table.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// newDirectoryClient wires the markup extractor and the HTTP cache into a
// directory client from config. The cache is optional; a failed open only
// costs cache hits.
func newDirectoryClient() *directory.Client {
	var overrides map[string][]string
	if cfg.Directory.SynonymsPath != "" {
		loaded, err := markup.LoadSynonyms(cfg.Directory.SynonymsPath)
		if err != nil {
			zap.L().Warn("synonym overrides skipped", zap.Error(err))
		} else {
			overrides = loaded
		}
	}

	var respCache *cache.Cache
	if cfg.Cache.Path != "" && cfg.Cache.TTLHours > 0 {
		opened, err := cache.Open(cfg.Cache.Path, time.Duration(cfg.Cache.TTLHours)*time.Hour)
		if err != nil {
			zap.L().Warn("http cache disabled", zap.Error(err))
		} else {
			respCache = opened
		}
	}

	return directory.NewClient(directory.Options{
		ListingURL:           cfg.Directory.ListingURL,
		ProfilePathFragment:  cfg.Directory.ProfilePathFragment,
		ListContainerHint:    cfg.Directory.ListContainerHint,
		ProfileContainerHint: cfg.Directory.ProfileContainerHint,
		UserAgent:            cfg.Directory.UserAgent,
		AcceptLanguage:       cfg.Directory.AcceptLanguage,
		RequestsPerSec:       cfg.Directory.RequestsPerSec,
		Timeout:              time.Duration(cfg.Directory.TimeoutSecs) * time.Second,
	}, markup.New(overrides), respCache)
}

func newEnricher() *enrich.Enricher {
	return enrich.NewEnricher(
		enrich.NewClient(cfg.Anthropic.Key),
		cfg.Anthropic.Model,
		int64(cfg.Anthropic.MaxTokens),
	)
}

// locationHint returns the configured country/city bias, or nil when unset.
func locationHint() *model.LocationHint {
	if cfg.Enrich.Country == "" && cfg.Enrich.City == "" {
		return nil
	}
	return &model.LocationHint{Country: cfg.Enrich.Country, City: cfg.Enrich.City}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
