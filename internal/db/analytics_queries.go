package db

import (
	"context"
	"fmt"
	"time"
)

// UpsertDailyAnalytics recomputes and stores the rollup row for the given day.
// Day boundaries are UTC.
func (p *Pool) UpsertDailyAnalytics(ctx context.Context, day time.Time, now time.Time) error {
	const q = `
INSERT INTO monitoring.daily_analytics (
	day,
	total_items,
	pending_items,
	analyzed_items,
	error_items,
	new_timeline_events,
	updated_at
)
SELECT
	$1::date,
	COUNT(*) FILTER (WHERE TRUE),
	COUNT(*) FILTER (WHERE status = 'pending'),
	COUNT(*) FILTER (WHERE status = 'analyzed'),
	COUNT(*) FILTER (WHERE status = 'error'),
	(
		SELECT COUNT(*)
		FROM monitoring.timeline_events te
		WHERE te.created_at >= $1::date
		  AND te.created_at < $1::date + INTERVAL '1 day'
	),
	$2
FROM monitoring.content_items ci
WHERE ci.created_at >= $1::date
  AND ci.created_at < $1::date + INTERVAL '1 day'
ON CONFLICT (day) DO UPDATE SET
	total_items = EXCLUDED.total_items,
	pending_items = EXCLUDED.pending_items,
	analyzed_items = EXCLUDED.analyzed_items,
	error_items = EXCLUDED.error_items,
	new_timeline_events = EXCLUDED.new_timeline_events,
	updated_at = EXCLUDED.updated_at
`
	if _, err := p.Exec(ctx, q, day.UTC().Format("2006-01-02"), now.UTC()); err != nil {
		return fmt.Errorf("upsert daily analytics for %s: %w", day.UTC().Format("2006-01-02"), err)
	}
	return nil
}

// UpsertWeeklyTrend recomputes and stores the rollup row for the ISO week
// starting at weekStart (a Monday, UTC).
func (p *Pool) UpsertWeeklyTrend(ctx context.Context, weekStart time.Time, now time.Time) error {
	const q = `
INSERT INTO monitoring.weekly_trends (
	week_start,
	items,
	top_source_id,
	avg_importance,
	updated_at
)
SELECT
	$1::date,
	COUNT(*),
	(
		SELECT source_id
		FROM monitoring.content_items
		WHERE created_at >= $1::date
		  AND created_at < $1::date + INTERVAL '7 days'
		GROUP BY source_id
		ORDER BY COUNT(*) DESC, source_id
		LIMIT 1
	),
	AVG((metadata ->> 'importance')::double precision),
	$2
FROM monitoring.content_items
WHERE created_at >= $1::date
  AND created_at < $1::date + INTERVAL '7 days'
ON CONFLICT (week_start) DO UPDATE SET
	items = EXCLUDED.items,
	top_source_id = EXCLUDED.top_source_id,
	avg_importance = EXCLUDED.avg_importance,
	updated_at = EXCLUDED.updated_at
`
	if _, err := p.Exec(ctx, q, weekStart.UTC().Format("2006-01-02"), now.UTC()); err != nil {
		return fmt.Errorf("upsert weekly trend for %s: %w", weekStart.UTC().Format("2006-01-02"), err)
	}
	return nil
}
