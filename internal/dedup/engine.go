package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"crisiswatch/internal/db"
	"crisiswatch/internal/globaltime"
	"crisiswatch/internal/monlog"
)

// Result summarizes one collapse run across both phases.
type Result struct {
	TotalRemoved    int
	ExactDuplicates int
	FuzzyDuplicates int
}

type auditSink interface {
	Write(ctx context.Context, entry monlog.Entry)
}

// collapseStore is the slice of the store the engine needs. *db.Pool
// satisfies it.
type collapseStore interface {
	ListExactDuplicateMembers(ctx context.Context) ([]db.DuplicateMember, error)
	ListItemsCreatedSince(ctx context.Context, cutoff time.Time) ([]db.DuplicateMember, error)
	RemoveContentItem(ctx context.Context, contentItemID int64) (int64, int64, error)
}

// Engine removes duplicate content items in two phases: exact title matches
// over the whole store, then near-duplicates over the recent window. Each
// removal deletes the item's timeline events first so no orphaned event
// survives.
type Engine struct {
	store        collapseStore
	sink         auditSink
	logger       zerolog.Logger
	policy       SimilarityPolicy
	recentWindow time.Duration
}

func NewEngine(store collapseStore, sink auditSink, logger zerolog.Logger, policy SimilarityPolicy, recentWindow time.Duration) *Engine {
	return &Engine{
		store:        store,
		sink:         sink,
		logger:       logger,
		policy:       policy,
		recentWindow: recentWindow,
	}
}

// Collapse runs the exact phase and then the near-duplicate phase. The recent
// item set for the second phase is fetched after the first phase's deletes so
// an item removed as an exact duplicate is never considered again.
func (e *Engine) Collapse(ctx context.Context) (Result, error) {
	if e == nil || e.store == nil {
		return Result{}, fmt.Errorf("collapse engine is not initialized")
	}

	var result Result

	exactMembers, err := e.store.ListExactDuplicateMembers(ctx)
	if err != nil {
		return result, fmt.Errorf("list exact duplicates: %w", err)
	}

	exact := planExactRemovals(exactMembers)
	exactRemoved := e.removeItems(ctx, exact.Removals)
	result.ExactDuplicates = exactRemoved
	result.TotalRemoved += exactRemoved

	cutoff := globaltime.UTC().Add(-e.recentWindow)
	recent, err := e.store.ListItemsCreatedSince(ctx, cutoff)
	if err != nil {
		return result, fmt.Errorf("list recent items: %w", err)
	}

	fuzzy := planFuzzyRemovals(recent, e.policy)
	fuzzyRemoved := e.removeItems(ctx, fuzzy.Removals)
	result.FuzzyDuplicates = fuzzyRemoved
	result.TotalRemoved += fuzzyRemoved

	e.logger.Info().
		Int("total_removed", result.TotalRemoved).
		Int("exact_removed", result.ExactDuplicates).
		Int("exact_groups", exact.Groups).
		Int("fuzzy_removed", result.FuzzyDuplicates).
		Int("fuzzy_pairs", fuzzy.Pairs).
		Msg("duplicate collapse finished")

	if e.sink != nil {
		e.sink.Write(ctx, monlog.Entry{
			SourceType: "system",
			Action:     "cleanup_duplicates",
			Status:     monlog.StatusSuccess,
			Message:    fmt.Sprintf("removed %d duplicate items (%d exact, %d fuzzy)", result.TotalRemoved, result.ExactDuplicates, result.FuzzyDuplicates),
			Metadata: map[string]any{
				"total_removed": result.TotalRemoved,
				"exact_removed": result.ExactDuplicates,
				"fuzzy_removed": result.FuzzyDuplicates,
				"exact_groups":  exact.Groups,
				"fuzzy_pairs":   fuzzy.Pairs,
			},
		})
	}

	return result, nil
}

// removeItems deletes each planned item together with its timeline events;
// the store removes both in one transaction so a failure can never strand an
// item whose events are already gone. A failed or already-gone item is logged
// and skipped; the rest of the plan still runs.
func (e *Engine) removeItems(ctx context.Context, removals []db.DuplicateMember) int {
	removed := 0
	for _, item := range removals {
		events, rows, err := e.store.RemoveContentItem(ctx, item.ContentItemID)
		if err != nil {
			e.logger.Warn().Err(err).
				Int64("content_item_id", item.ContentItemID).
				Msg("failed to remove content item, skipping")
			continue
		}
		if rows == 0 {
			e.logger.Debug().
				Int64("content_item_id", item.ContentItemID).
				Msg("content item already removed")
			continue
		}

		removed++
		e.logger.Debug().
			Int64("content_item_id", item.ContentItemID).
			Int64("timeline_events_removed", events).
			Msg("duplicate content item removed")
	}
	return removed
}
