package db

import (
	"context"
	"encoding/json"
	"fmt"
)

// InsertMonitoringLog appends one audit entry. Entries are never updated or
// deleted by the application.
func (p *Pool) InsertMonitoringLog(ctx context.Context, entry *MonitoringLog) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}
	if entry == nil {
		return fmt.Errorf("monitoring log entry is nil")
	}

	const q = `
INSERT INTO monitoring.monitoring_logs (
	source_type,
	action,
	status,
	message,
	metadata,
	created_at
)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING monitoring_log_id, created_at
`

	return p.QueryRow(
		ctx,
		q,
		entry.SourceType,
		entry.Action,
		entry.Status,
		entry.Message,
		nullableJSON(entry.Metadata),
		entry.CreatedAt,
	).Scan(&entry.MonitoringLogID, &entry.CreatedAt)
}

// ListMonitoringLogs returns entries newest-first, optionally filtered by
// source type.
func (p *Pool) ListMonitoringLogs(ctx context.Context, limit int, sourceType string) ([]MonitoringLog, error) {
	const q = `
SELECT
	monitoring_log_id,
	source_type,
	action,
	status,
	message,
	metadata,
	created_at
FROM monitoring.monitoring_logs
WHERE ($1 = '' OR source_type = $1)
ORDER BY created_at DESC, monitoring_log_id DESC
LIMIT $2
`

	rows, err := p.Query(ctx, q, sourceType, limit)
	if err != nil {
		return nil, fmt.Errorf("query monitoring logs: %w", err)
	}
	defer rows.Close()

	entries := make([]MonitoringLog, 0, limit)
	for rows.Next() {
		var entry MonitoringLog
		var metadataRaw []byte
		if err := rows.Scan(
			&entry.MonitoringLogID,
			&entry.SourceType,
			&entry.Action,
			&entry.Status,
			&entry.Message,
			&metadataRaw,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan monitoring log: %w", err)
		}
		if len(metadataRaw) > 0 && string(metadataRaw) != "null" {
			entry.Metadata = json.RawMessage(metadataRaw)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monitoring logs: %w", err)
	}
	return entries, nil
}
