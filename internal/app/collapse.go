package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"crisiswatch/internal/cli"
	"crisiswatch/internal/config"
	"crisiswatch/internal/db"
	"crisiswatch/internal/dedup"
	"crisiswatch/internal/logging"
	"crisiswatch/internal/monlog"
)

func runCollapse(args []string) int {
	fs := flag.NewFlagSet("collapse", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Operation timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("collapse failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	sink := monlog.NewSink(pool, logger)
	policy := dedup.PrefixWindowPolicy{
		PrefixLen: cfg.DedupTitlePrefixLen,
		Window:    cfg.DedupTimeWindow,
	}
	recentWindow := time.Duration(cfg.DedupRecentDays) * 24 * time.Hour
	engine := dedup.NewEngine(pool, sink, logger, policy, recentWindow)

	result, err := engine.Collapse(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("collapse run failed")
		fmt.Fprintf(os.Stderr, "Collapse failed: %v\n", err)
		return 1
	}

	fmt.Printf("removed %d duplicate items (%d exact, %d fuzzy)\n",
		result.TotalRemoved, result.ExactDuplicates, result.FuzzyDuplicates)
	return 0
}
