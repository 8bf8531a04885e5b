package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"crisiswatch/internal/db"
	"crisiswatch/internal/ingest"
	"crisiswatch/internal/monlog"
	"crisiswatch/internal/scheduler"
	payloadschema "crisiswatch/schema"
)

const maxResponseBytes = 16 << 20

type auditSink interface {
	Write(ctx context.Context, entry monlog.Entry)
}

type sourceEnsurer interface {
	EnsureSource(ctx context.Context, name, sourceType string, url *string) (*db.Source, error)
}

type batchIngester interface {
	IngestBatch(ctx context.Context, batch ingest.Batch) ingest.BatchResult
}

// FetchAction polls one monitor endpoint and feeds the returned records into
// the ingestion path. The endpoint owns collection (scraping, API access);
// this side only validates and stores.
type FetchAction struct {
	name       string
	sourceType string
	endpoint   string
	client     *http.Client
	sources    sourceEnsurer
	ingester   batchIngester
	sink       auditSink
	logger     zerolog.Logger
}

func NewFetchAction(name, sourceType, endpoint string, timeout time.Duration, sources sourceEnsurer, ingester batchIngester, sink auditSink, logger zerolog.Logger) *FetchAction {
	return &FetchAction{
		name:       name,
		sourceType: sourceType,
		endpoint:   endpoint,
		client:     &http.Client{Timeout: timeout},
		sources:    sources,
		ingester:   ingester,
		sink:       sink,
		logger:     logger,
	}
}

func (a *FetchAction) Name() string { return a.name }

// Run fetches one batch. A transport failure or non-2xx response fails the
// whole run; individual invalid records are rejected and the rest of the
// batch still lands through the ingestion path, which writes the batch audit
// entry.
func (a *FetchAction) Run(ctx context.Context) (scheduler.Summary, error) {
	raw, err := a.fetchBatch(ctx)
	if err != nil {
		a.writeAudit(ctx, monlog.StatusError, fmt.Sprintf("fetch failed: %v", err), nil)
		return scheduler.Summary{}, err
	}

	fetched := len(raw)
	rejected := 0
	requests := make([]ingest.Request, 0, len(raw))
	for i, payload := range raw {
		record, err := payloadschema.ValidateMonitorRecord(payload)
		if err != nil {
			rejected++
			a.logger.Warn().Err(err).Int("index", i).Str("endpoint", a.endpoint).Msg("monitor record rejected")
			continue
		}
		req, err := a.buildRequest(ctx, record)
		if err != nil {
			rejected++
			a.logger.Warn().Err(err).Int("index", i).Str("endpoint", a.endpoint).Msg("monitor record not stored")
			continue
		}
		requests = append(requests, req)
	}

	result := a.ingester.IngestBatch(ctx, ingest.Batch{
		SourceType: a.sourceType,
		Action:     a.name,
		Requests:   requests,
	})
	rejected += result.Rejected + result.Failed

	message := fmt.Sprintf("fetched %d records, inserted %d, rejected %d", fetched, result.Created, rejected)
	metadata := map[string]any{
		"endpoint": a.endpoint,
		"fetched":  fetched,
		"inserted": result.Created,
		"rejected": rejected,
	}

	return scheduler.Summary{Message: message, Metadata: metadata}, nil
}

func (a *FetchAction) fetchBatch(ctx context.Context) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build monitor request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call monitor endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("monitor endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read monitor response: %w", err)
	}

	var batch []json.RawMessage
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, fmt.Errorf("decode monitor batch: %w", err)
	}
	return batch, nil
}

func (a *FetchAction) buildRequest(ctx context.Context, record *payloadschema.MonitorRecord) (ingest.Request, error) {
	source, err := a.sources.EnsureSource(ctx, strings.TrimSpace(record.Source), record.SourceType, nil)
	if err != nil {
		return ingest.Request{}, err
	}

	req := ingest.Request{
		SourceID: source.SourceID,
		Title:    record.Title,
		Content:  record.Content,
		Tags:     record.Tags,
		Metadata: record.Metadata,
	}
	if record.Summary != nil {
		req.Summary = *record.Summary
	}
	if record.OriginalURL != nil {
		req.OriginalURL = *record.OriginalURL
	}
	if record.PublishedAt != nil {
		published, err := time.Parse(time.RFC3339, strings.TrimSpace(*record.PublishedAt))
		if err == nil {
			req.PublishedAt = &published
		}
	}
	if len(record.AIAnalysis) > 0 {
		encoded, err := json.Marshal(record.AIAnalysis)
		if err != nil {
			return ingest.Request{}, fmt.Errorf("encode ai analysis: %w", err)
		}
		req.AIAnalysis = encoded
	}

	return req, nil
}

func (a *FetchAction) writeAudit(ctx context.Context, status, message string, metadata map[string]any) {
	if a.sink == nil {
		return
	}
	a.sink.Write(ctx, monlog.Entry{
		SourceType: a.sourceType,
		Action:     a.name,
		Status:     status,
		Message:    message,
		Metadata:   metadata,
	})
}
