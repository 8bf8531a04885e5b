package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"crisiswatch/internal/cli"
	"crisiswatch/internal/config"
	"crisiswatch/internal/db"
	"crisiswatch/internal/dedup"
	"crisiswatch/internal/httpapi"
	"crisiswatch/internal/ingest"
	"crisiswatch/internal/logging"
	"crisiswatch/internal/monitor"
	"crisiswatch/internal/monlog"
	"crisiswatch/internal/scheduler"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	host := fs.String("host", "0.0.0.0", "Host interface to bind")
	port := fs.Int("port", 8090, "HTTP port")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")
	jobTimeout := fs.Duration("job-timeout", 10*time.Minute, "Per-job run timeout")
	noScheduler := fs.Bool("no-scheduler", false, "Start without initializing the scheduler")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *port <= 0 || *port > 65535 {
		fmt.Fprintln(os.Stderr, "--port must be between 1 and 65535")
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

	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dbCancel()

	pool, err := db.NewPool(dbCtx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("serve failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	sink := monlog.NewSink(pool, logger)
	ingestSvc := ingest.NewService(pool, sink, logger)

	engine := dedup.NewEngine(pool, sink, logger, dedup.PrefixWindowPolicy{
		PrefixLen: cfg.DedupTitlePrefixLen,
		Window:    cfg.DedupTimeWindow,
	}, time.Duration(cfg.DedupRecentDays)*24*time.Hour)

	sched := scheduler.New(
		scheduler.Registry(),
		buildActions(cfg, pool, ingestSvc, engine, sink, logger),
		sink,
		logger,
		cfg.SchedulerLocation(),
		*jobTimeout,
	)

	if !*noScheduler {
		if err := sched.Initialize(); err != nil {
			logger.Error().Err(err).Msg("scheduler initialization failed")
			fmt.Fprintf(os.Stderr, "Failed to initialize scheduler: %v\n", err)
			return 1
		}
	}
	defer sched.StopAll()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel()
	}()

	srv := httpapi.NewServer(pool, ingestSvc, engine, sched, logger, httpapi.Options{
		Host:            *host,
		Port:            *port,
		ReadTimeout:     *readTimeout,
		WriteTimeout:    *writeTimeout,
		ShutdownTimeout: *shutdownTimeout,
		AllowedOrigins:  cfg.CORSAllowedOriginsList(),
	})

	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Str("host", *host).Int("port", *port).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}

	return 0
}

// buildActions assembles the scheduler action set. Fetch actions whose
// endpoint is not configured are left out; their registry jobs are then
// skipped at Initialize time with a warning.
func buildActions(cfg *config.Config, pool *db.Pool, ingestSvc *ingest.Service, engine *dedup.Engine, sink *monlog.Sink, logger zerolog.Logger) []scheduler.Action {
	actions := []scheduler.Action{
		monitor.NewAnalyticsRollupAction(pool, logger),
		monitor.NewTrendRollupAction(pool, logger),
		monitor.NewCollapseAction(engine),
	}

	fetchTargets := []struct {
		actionName string
		sourceType string
		endpoint   string
	}{
		{scheduler.ActionSocialFetch, "social_post", cfg.SocialMonitorURL},
		{scheduler.ActionNewsFetch, "news_article", cfg.NewsMonitorURL},
		{scheduler.ActionOfficialFetch, "official_page", cfg.OfficialMonitorURL},
	}
	for _, target := range fetchTargets {
		endpoint := strings.TrimSpace(target.endpoint)
		if endpoint == "" {
			logger.Warn().Str("action", target.actionName).Msg("monitor endpoint not configured, action disabled")
			continue
		}
		actions = append(actions, monitor.NewFetchAction(
			target.actionName,
			target.sourceType,
			endpoint,
			cfg.MonitorTimeout,
			pool,
			ingestSvc,
			sink,
			logger,
		))
	}

	return actions
}
