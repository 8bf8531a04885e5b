package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"crisiswatch/internal/db"
	"crisiswatch/internal/globaltime"
	"crisiswatch/internal/langdetect"
	"crisiswatch/internal/monlog"
)

// Request is one normalized candidate record entering the store.
type Request struct {
	SourceID    int64
	Title       string
	Content     string
	Summary     string
	OriginalURL string
	PublishedAt *time.Time
	Tags        []string
	Metadata    map[string]any
	AIAnalysis  json.RawMessage
}

// CreatedItem is the persisted item together with its resolved source.
type CreatedItem struct {
	Item   db.ContentItem
	Source db.Source
}

type auditSink interface {
	Write(ctx context.Context, entry monlog.Entry)
}

// ingestStore is the slice of the store the service needs. *db.Pool
// satisfies it.
type ingestStore interface {
	GetSourceByID(ctx context.Context, sourceID int64) (*db.Source, error)
	InsertContentItem(ctx context.Context, item *db.ContentItem) error
}

// Service persists candidate records as pending content items. Duplicate
// detection is deliberately deferred to the collapse engine so ingestion
// latency stays independent of store size.
type Service struct {
	store  ingestStore
	sink   auditSink
	logger zerolog.Logger
}

func NewService(store ingestStore, sink auditSink, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		sink:   sink,
		logger: logger,
	}
}

// CreateItem validates and persists one record with status pending. It never
// checks for duplicates.
func (s *Service) CreateItem(ctx context.Context, req Request) (*CreatedItem, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("ingest service is not initialized")
	}

	if verr := validateRequest(req); verr != nil {
		return nil, verr
	}

	source, err := s.store.GetSourceByID(ctx, req.SourceID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, &ValidationError{Fields: map[string]string{"sourceId": "unknown source"}}
		}
		return nil, fmt.Errorf("resolve source %d: %w", req.SourceID, err)
	}
	if !source.Active {
		return nil, &ValidationError{Fields: map[string]string{"sourceId": "source is inactive"}}
	}

	item := db.ContentItem{
		SourceID:    source.SourceID,
		Title:       strings.TrimSpace(req.Title),
		Content:     strings.TrimSpace(req.Content),
		Summary:     normalizeOptionalString(req.Summary),
		OriginalURL: normalizeOptionalString(req.OriginalURL),
		PublishedAt: normalizeOptionalTime(req.PublishedAt),
		Status:      db.ContentStatusPending,
		AIAnalysis:  req.AIAnalysis,
		CreatedAt:   globaltime.UTC(),
	}

	if code := langdetect.DetectISO6391(item.Title + " " + item.Content); code != "" {
		item.Language = &code
	}

	if len(req.Tags) > 0 {
		encoded, err := json.Marshal(normalizeTags(req.Tags))
		if err != nil {
			return nil, fmt.Errorf("encode tags: %w", err)
		}
		item.Tags = encoded
	}
	if len(req.Metadata) > 0 {
		encoded, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		item.Metadata = encoded
	}

	if err := s.store.InsertContentItem(ctx, &item); err != nil {
		return nil, fmt.Errorf("insert content item: %w", err)
	}

	s.logger.Debug().
		Int64("content_item_id", item.ContentItemID).
		Int64("source_id", source.SourceID).
		Str("status", item.Status).
		Msg("content item ingested")

	return &CreatedItem{
		Item:   item,
		Source: *source,
	}, nil
}

// Batch is a group of candidate records ingested together. SourceType and
// Action label the batch audit entry.
type Batch struct {
	SourceType string
	Action     string
	Requests   []Request
}

// BatchResult summarizes one ingestion batch.
type BatchResult struct {
	Created  int
	Rejected int
	Failed   int
}

// IngestBatch persists a batch of records. Per-record validation failures and
// store errors are logged and counted without aborting the rest of the batch,
// and one audit entry summarizing the batch is written to the sink.
func (s *Service) IngestBatch(ctx context.Context, batch Batch) BatchResult {
	var result BatchResult
	for i, req := range batch.Requests {
		if _, err := s.CreateItem(ctx, req); err != nil {
			if IsValidationError(err) {
				result.Rejected++
				s.logger.Warn().Err(err).Int("index", i).Str("action", batch.Action).Msg("batch record rejected")
				continue
			}
			result.Failed++
			s.logger.Error().Err(err).Int("index", i).Str("action", batch.Action).Msg("batch record insert failed")
			continue
		}
		result.Created++
	}

	if s.sink != nil {
		status := monlog.StatusSuccess
		if result.Failed > 0 {
			status = monlog.StatusWarning
		}
		s.sink.Write(ctx, monlog.Entry{
			SourceType: batch.SourceType,
			Action:     batch.Action,
			Status:     status,
			Message:    fmt.Sprintf("batch ingested: %d created, %d rejected, %d failed", result.Created, result.Rejected, result.Failed),
			Metadata: map[string]any{
				"created":  result.Created,
				"rejected": result.Rejected,
				"failed":   result.Failed,
			},
		})
	}

	return result
}

func validateRequest(req Request) *ValidationError {
	fields := map[string]string{}
	if req.SourceID <= 0 {
		fields["sourceId"] = "is required"
	}
	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = "is required"
	}
	if strings.TrimSpace(req.Content) == "" {
		fields["content"] = "is required"
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func normalizeTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		cleaned = append(cleaned, trimmed)
	}
	return cleaned
}

func normalizeOptionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil || value.IsZero() {
		return nil
	}
	utc := value.UTC()
	return &utc
}
