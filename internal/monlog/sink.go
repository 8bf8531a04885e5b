package monlog

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"crisiswatch/internal/db"
	"crisiswatch/internal/globaltime"
)

// Entry statuses. Every core operation writes exactly one entry per meaningful
// state transition.
const (
	StatusInfo    = "info"
	StatusSuccess = "success"
	StatusWarning = "warning"
	StatusError   = "error"
)

// Entry is one append-only audit record.
type Entry struct {
	SourceType string
	Action     string
	Status     string
	Message    string
	Metadata   map[string]any
}

// Sink writes audit entries to the monitoring log table. The core never reads
// the table back; only reporting surfaces do.
type Sink struct {
	pool   *db.Pool
	logger zerolog.Logger
}

func NewSink(pool *db.Pool, logger zerolog.Logger) *Sink {
	return &Sink{
		pool:   pool,
		logger: logger,
	}
}

// Write appends one entry. A failed write is reported through the process
// logger and swallowed: audit logging must never abort the operation that
// produced the entry.
func (s *Sink) Write(ctx context.Context, entry Entry) {
	if s == nil || s.pool == nil {
		return
	}

	status := strings.TrimSpace(strings.ToLower(entry.Status))
	switch status {
	case StatusInfo, StatusSuccess, StatusWarning, StatusError:
	default:
		status = StatusInfo
	}

	var metadataRaw json.RawMessage
	if len(entry.Metadata) > 0 {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			s.logger.Warn().Err(err).Str("action", entry.Action).Msg("monitoring log metadata not serializable")
		} else {
			metadataRaw = encoded
		}
	}

	row := db.MonitoringLog{
		SourceType: strings.TrimSpace(entry.SourceType),
		Action:     strings.TrimSpace(entry.Action),
		Status:     status,
		Message:    entry.Message,
		Metadata:   metadataRaw,
		CreatedAt:  globaltime.UTC(),
	}

	if err := s.pool.InsertMonitoringLog(ctx, &row); err != nil {
		s.logger.Error().
			Err(err).
			Str("source_type", row.SourceType).
			Str("action", row.Action).
			Str("status", row.Status).
			Msg("monitoring log write failed")
	}
}
