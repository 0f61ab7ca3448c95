package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"emaildomains/internal/config"
	"emaildomains/internal/pipeline"
	"emaildomains/pkg/logger"
	"emaildomains/pkg/storage"
	"emaildomains/pkg/storage/sqlite"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func aggregateCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Fetches all sources and regenerates the categorized dataset",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// history is optional; an unopenable database must not block a run
			var history storage.Storage
			if cfg.History.Path != "" {
				strg, err := sqlite.New(sqlite.Options{Path: cfg.History.Path})
				if err != nil {
					logger.Warn(ctx, "could not open history database, run will not be recorded",
						zap.Error(err))
				} else {
					defer func() {
						if err := strg.Close(); err != nil {
							logger.Warn(ctx, "could not close history database", zap.Error(err))
						}
					}()
					history = strg
				}
			}

			summary, err := pipeline.New(cfg, http.DefaultClient, history).Run(ctx)
			if err != nil {
				logger.Fatal(ctx, "aggregation failed", zap.Error(err))
			}

			fmt.Printf("run %s generated %d domains (disposable=%d free=%d paid_personal=%d)\n",
				summary.Metadata.RunID,
				summary.Metadata.TotalDomains,
				summary.Metadata.Disposable,
				summary.Metadata.Free,
				summary.Metadata.PaidPersonal)
			for _, id := range summary.FailedSources {
				fmt.Printf("warning: source %s contributed nothing (fetch failed)\n", id)
			}
		},
	}

	return cmd
}
