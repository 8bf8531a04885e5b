package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"crisiswatch/internal/cli"
	"crisiswatch/internal/config"
	"crisiswatch/internal/db"
	"crisiswatch/internal/ingest"
	"crisiswatch/internal/logging"
	"crisiswatch/internal/monlog"
)

func runIngest(args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	sourceID := fs.Int64("source-id", 0, "Source id (required)")
	title := fs.String("title", "", "Item title (required)")
	content := fs.String("content", "", "Item content (required)")
	summary := fs.String("summary", "", "Optional summary")
	originalURL := fs.String("url", "", "Optional original URL")
	publishedAt := fs.String("published-at", "", "Optional publication time (RFC3339)")
	tags := fs.String("tags", "", "Optional comma-separated tags")
	metadataJSON := fs.String("metadata", "", "Optional metadata as a JSON object")
	timeout := fs.Duration("timeout", 30*time.Second, "Operation timeout")

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

	req := ingest.Request{
		SourceID:    *sourceID,
		Title:       *title,
		Content:     *content,
		Summary:     *summary,
		OriginalURL: *originalURL,
	}

	if trimmed := strings.TrimSpace(*publishedAt); trimmed != "" {
		parsed, err := time.Parse(time.RFC3339, trimmed)
		if err != nil {
			fmt.Fprintf(os.Stderr, "--published-at must be RFC3339: %v\n", err)
			return 2
		}
		req.PublishedAt = &parsed
	}
	if trimmed := strings.TrimSpace(*tags); trimmed != "" {
		req.Tags = strings.Split(trimmed, ",")
	}
	if trimmed := strings.TrimSpace(*metadataJSON); trimmed != "" {
		var metadata map[string]any
		if err := json.Unmarshal([]byte(trimmed), &metadata); err != nil {
			fmt.Fprintf(os.Stderr, "--metadata must be a JSON object: %v\n", err)
			return 2
		}
		req.Metadata = metadata
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
		logger.Error().Err(err).Msg("ingest failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	sink := monlog.NewSink(pool, logger)
	created, err := ingest.NewService(pool, sink, logger).CreateItem(ctx, req)
	if err != nil {
		if verr, ok := ingest.AsValidationError(err); ok {
			fmt.Fprintf(os.Stderr, "Validation failed:\n")
			for field, reason := range verr.Fields {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", field, reason)
			}
			return 2
		}
		logger.Error().Err(err).Msg("ingest failed")
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		return 1
	}

	fmt.Printf("created content item %d (%s) from source %q\n",
		created.Item.ContentItemID, created.Item.ContentItemUUID, created.Source.Name)
	return 0
}
