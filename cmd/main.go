// Package main provides the CLI entrypoint for the email domain aggregator.
// It wires subcommands (aggregate, lookup, stats, migrate), loads
// configuration, and initializes logging.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"emaildomains/internal/config"
	"emaildomains/pkg/logger"
	"emaildomains/pkg/storage/sqlite"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// getSQLite opens the run-history database using configuration values and
// returns it along with a cleanup function to close the handle.
func getSQLite(ctx context.Context, cfg *config.Config) (*sqlite.SQLite, func()) {
	strg, err := sqlite.New(sqlite.Options{Path: cfg.History.Path})
	if err != nil {
		logger.Fatal(ctx, "could not open history database", zap.Error(err))
	}

	return strg, func() {
		logger.Info(ctx, "closing history database...")
		if err = strg.Close(); err != nil {
			logger.Warn(ctx, "could not close history database", zap.Error(err))
		}
	}
}

// main sets up the root Cobra command, loads configuration and logging, and
// registers subcommands before executing the CLI.
func main() {
	rootCmd := &cobra.Command{
		Use: "emaildomains",
	}

	// there is no way to access flags before command execution in cobra.
	// configPath here is parsed using the standard flags package.
	// following line is just added to prevent errors when Cobra is parsing the flags.
	rootCmd.PersistentFlags().StringP("config", "c", "config.yml", "Config File Path")

	configPath := flag.String("c", "config.yml", "The config file path")
	flag.Parse()

	log.Println("loading config ...")
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("could not load config file", err)
	}

	logger.Setup(cfg.Environment)

	ctx := context.Background()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			_ = logger.Get(ctx).Sync()

			panic(p)
		}
	}()

	rootCmd.AddCommand(
		migrateCommand(cfg),
		aggregateCommand(cfg),
		lookupCommand(cfg),
		statsCommand(cfg),
	)

	err = rootCmd.Execute()
	_ = logger.Get(ctx).Sync()
	if err != nil {
		os.Exit(1) //nolint: gocritic
	}
}
