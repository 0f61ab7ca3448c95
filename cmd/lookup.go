package main

import (
	"context"
	"fmt"
	"path/filepath"

	"emaildomains/internal/config"
	"emaildomains/pkg/filter"
	"emaildomains/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func lookupCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <domain> [domain...]",
		Short: "Prints the category of each domain against the generated dataset",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			f, err := filter.Load(filepath.Join(cfg.Output.Dir, "email_domains.json"))
			if err != nil {
				logger.Fatal(ctx, "could not load dataset, run aggregate first", zap.Error(err))
			}

			for _, d := range args {
				fmt.Printf("%s\t%s\n", d, f.Categorize(d))
			}
		},
	}

	return cmd
}
