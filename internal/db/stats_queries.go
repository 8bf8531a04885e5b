package db

import (
	"context"
	"fmt"
	"time"
)

// StoreStats aggregates the counters surfaced by the stats endpoint.
type StoreStats struct {
	Sources          int64      `json:"sources"`
	ContentItems     int64      `json:"content_items"`
	PendingItems     int64      `json:"pending_items"`
	AnalyzedItems    int64      `json:"analyzed_items"`
	ErrorItems       int64      `json:"error_items"`
	TimelineEvents   int64      `json:"timeline_events"`
	MonitoringLogs   int64      `json:"monitoring_logs"`
	LastItemCreated  *time.Time `json:"last_item_created,omitempty"`
	LastLogCreated   *time.Time `json:"last_log_created,omitempty"`
}

// QueryStats collects store-wide counters in a single round trip.
func (p *Pool) QueryStats(ctx context.Context) (*StoreStats, error) {
	const q = `
SELECT
	(SELECT COUNT(*) FROM monitoring.sources) AS sources,
	(SELECT COUNT(*) FROM monitoring.content_items) AS content_items,
	(SELECT COUNT(*) FROM monitoring.content_items WHERE status = 'pending') AS pending_items,
	(SELECT COUNT(*) FROM monitoring.content_items WHERE status = 'analyzed') AS analyzed_items,
	(SELECT COUNT(*) FROM monitoring.content_items WHERE status = 'error') AS error_items,
	(SELECT COUNT(*) FROM monitoring.timeline_events) AS timeline_events,
	(SELECT COUNT(*) FROM monitoring.monitoring_logs) AS monitoring_logs,
	(SELECT MAX(created_at) FROM monitoring.content_items) AS last_item_created,
	(SELECT MAX(created_at) FROM monitoring.monitoring_logs) AS last_log_created
`

	var stats StoreStats
	if err := p.QueryRow(ctx, q).Scan(
		&stats.Sources,
		&stats.ContentItems,
		&stats.PendingItems,
		&stats.AnalyzedItems,
		&stats.ErrorItems,
		&stats.TimelineEvents,
		&stats.MonitoringLogs,
		&stats.LastItemCreated,
		&stats.LastLogCreated,
	); err != nil {
		return nil, fmt.Errorf("query store stats: %w", err)
	}
	return &stats, nil
}
