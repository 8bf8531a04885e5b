package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"crisiswatch/internal/db"
	"crisiswatch/internal/globaltime"
	"crisiswatch/internal/scheduler"
)

// AnalyticsRollupAction recomputes today's daily analytics row.
type AnalyticsRollupAction struct {
	pool   *db.Pool
	logger zerolog.Logger
}

func NewAnalyticsRollupAction(pool *db.Pool, logger zerolog.Logger) *AnalyticsRollupAction {
	return &AnalyticsRollupAction{pool: pool, logger: logger}
}

func (a *AnalyticsRollupAction) Name() string { return scheduler.ActionAnalyticsRollup }

func (a *AnalyticsRollupAction) Run(ctx context.Context) (scheduler.Summary, error) {
	now := globaltime.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if err := a.pool.UpsertDailyAnalytics(ctx, day, now); err != nil {
		return scheduler.Summary{}, fmt.Errorf("upsert daily analytics: %w", err)
	}

	message := fmt.Sprintf("daily analytics rolled up for %s", day.Format("2006-01-02"))
	a.logger.Debug().Str("day", day.Format("2006-01-02")).Msg("daily analytics updated")
	return scheduler.Summary{
		Message:  message,
		Metadata: map[string]any{"day": day.Format("2006-01-02")},
	}, nil
}

// TrendRollupAction recomputes the current ISO week's trend row.
type TrendRollupAction struct {
	pool   *db.Pool
	logger zerolog.Logger
}

func NewTrendRollupAction(pool *db.Pool, logger zerolog.Logger) *TrendRollupAction {
	return &TrendRollupAction{pool: pool, logger: logger}
}

func (a *TrendRollupAction) Name() string { return scheduler.ActionTrendRollup }

func (a *TrendRollupAction) Run(ctx context.Context) (scheduler.Summary, error) {
	now := globaltime.UTC()
	weekStart := isoWeekStart(now)

	if err := a.pool.UpsertWeeklyTrend(ctx, weekStart, now); err != nil {
		return scheduler.Summary{}, fmt.Errorf("upsert weekly trend: %w", err)
	}

	message := fmt.Sprintf("weekly trend rolled up for week of %s", weekStart.Format("2006-01-02"))
	a.logger.Debug().Str("week_start", weekStart.Format("2006-01-02")).Msg("weekly trend updated")
	return scheduler.Summary{
		Message:  message,
		Metadata: map[string]any{"week_start": weekStart.Format("2006-01-02")},
	}, nil
}

// isoWeekStart returns the Monday of t's ISO week, at midnight UTC.
func isoWeekStart(t time.Time) time.Time {
	t = t.UTC()
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := t.AddDate(0, 0, 1-weekday)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)
}
