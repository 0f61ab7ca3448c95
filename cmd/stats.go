package main

import (
	"context"
	"fmt"
	"time"

	"emaildomains/internal/config"
	"emaildomains/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultStatsLimit = 10

func statsCommand(cfg *config.Config) *cobra.Command {
	var limit uint
	var showSources bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Lists recent aggregation runs from the history database",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			strg, closeStrg := getSQLite(ctx, cfg)
			defer closeStrg()

			runs, err := strg.RecentRuns(ctx, limit)
			if err != nil {
				logger.Fatal(ctx, "could not read run history", zap.Error(err))
			}
			if len(runs) == 0 {
				fmt.Println("no recorded runs")

				return
			}

			for _, run := range runs {
				fmt.Printf("%s  %s  total=%d disposable=%d free=%d paid_personal=%d\n",
					run.ID,
					run.GeneratedAt.Format(time.RFC3339),
					run.TotalDomains,
					run.Disposable,
					run.Free,
					run.PaidPersonal)

				if !showSources {
					continue
				}
				stats, err := strg.RunStats(ctx, run.ID)
				if err != nil {
					logger.Fatal(ctx, "could not read run sources", zap.Error(err))
				}
				for _, s := range stats {
					fmt.Printf("    %-24s %-13s raw=%d unique=%d overlap=%d invalid=%d\n",
						s.SourceID, s.Category, s.Raw, s.Unique, s.Overlap, s.Invalid)
				}
			}
		},
	}

	cmd.Flags().UintVarP(&limit, "limit", "n", defaultStatsLimit, "Maximum runs to list")
	cmd.Flags().BoolVarP(&showSources, "sources", "s", false, "Show per-source statistics for each run")

	return cmd
}
