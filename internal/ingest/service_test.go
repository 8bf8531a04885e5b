package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"crisiswatch/internal/db"
	"crisiswatch/internal/monlog"
)

type fakeIngestStore struct {
	sources    map[int64]*db.Source
	inserted   []db.ContentItem
	insertErrs map[string]error
	nextID     int64
}

func (f *fakeIngestStore) GetSourceByID(_ context.Context, sourceID int64) (*db.Source, error) {
	source, ok := f.sources[sourceID]
	if !ok {
		return nil, db.ErrNoRows
	}
	return source, nil
}

func (f *fakeIngestStore) InsertContentItem(_ context.Context, item *db.ContentItem) error {
	if err := f.insertErrs[item.Title]; err != nil {
		return err
	}
	f.nextID++
	item.ContentItemID = f.nextID
	f.inserted = append(f.inserted, *item)
	return nil
}

type captureSink struct {
	entries []monlog.Entry
}

func (s *captureSink) Write(_ context.Context, entry monlog.Entry) {
	s.entries = append(s.entries, entry)
}

func activeSourceStore() *fakeIngestStore {
	return &fakeIngestStore{
		sources: map[int64]*db.Source{
			1: {SourceID: 1, Name: "regional-wire", Type: "news_article", Active: true},
			2: {SourceID: 2, Name: "dormant-feed", Type: "news_article", Active: false},
		},
	}
}

func TestCreateItemPersistsPendingItem(t *testing.T) {
	store := activeSourceStore()
	svc := NewService(store, &captureSink{}, zerolog.Nop())

	created, err := svc.CreateItem(context.Background(), Request{
		SourceID: 1,
		Title:    "  Checkpoint reopened  ",
		Content:  "Traffic resumed at dawn after the overnight closure.",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if created.Item.Title != "Checkpoint reopened" {
		t.Fatalf("expected trimmed title, got %q", created.Item.Title)
	}
	if created.Item.Status != db.ContentStatusPending {
		t.Fatalf("expected pending status, got %q", created.Item.Status)
	}
	if created.Item.Language == nil || *created.Item.Language != "en" {
		t.Fatalf("expected detected language en, got %v", created.Item.Language)
	}
	if created.Source.Name != "regional-wire" {
		t.Fatalf("expected resolved source, got %+v", created.Source)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected one insert, got %d", len(store.inserted))
	}
}

func TestCreateItemRejectsUnknownSource(t *testing.T) {
	svc := NewService(activeSourceStore(), &captureSink{}, zerolog.Nop())

	_, err := svc.CreateItem(context.Background(), Request{
		SourceID: 99,
		Title:    "Bridge reopened",
		Content:  "Crossing restored.",
	})
	verr, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if verr.Fields["sourceId"] != "unknown source" {
		t.Fatalf("unexpected fields: %v", verr.Fields)
	}
}

func TestCreateItemRejectsInactiveSource(t *testing.T) {
	svc := NewService(activeSourceStore(), &captureSink{}, zerolog.Nop())

	_, err := svc.CreateItem(context.Background(), Request{
		SourceID: 2,
		Title:    "Bridge reopened",
		Content:  "Crossing restored.",
	})
	verr, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if verr.Fields["sourceId"] != "source is inactive" {
		t.Fatalf("unexpected fields: %v", verr.Fields)
	}
}

func TestIngestBatchWritesOneAuditEntry(t *testing.T) {
	store := activeSourceStore()
	store.insertErrs = map[string]error{"Power restored": fmt.Errorf("connection reset")}
	sink := &captureSink{}
	svc := NewService(store, sink, zerolog.Nop())

	result := svc.IngestBatch(context.Background(), Batch{
		SourceType: "news_article",
		Action:     "news_fetch",
		Requests: []Request{
			{SourceID: 1, Title: "Checkpoint reopened", Content: "Traffic resumed at dawn."},
			{SourceID: 1, Title: "Missing content"},
			{SourceID: 1, Title: "Power restored", Content: "Grid back online."},
		},
	})

	if result.Created != 1 || result.Rejected != 1 || result.Failed != 1 {
		t.Fatalf("unexpected batch result: %+v", result)
	}

	if len(sink.entries) != 1 {
		t.Fatalf("expected exactly one batch audit entry, got %d", len(sink.entries))
	}
	entry := sink.entries[0]
	if entry.SourceType != "news_article" || entry.Action != "news_fetch" {
		t.Fatalf("unexpected entry labels: %+v", entry)
	}
	if entry.Status != monlog.StatusWarning {
		t.Fatalf("expected warning status when inserts failed, got %q", entry.Status)
	}
	if entry.Metadata["created"] != 1 || entry.Metadata["rejected"] != 1 || entry.Metadata["failed"] != 1 {
		t.Fatalf("unexpected entry metadata: %v", entry.Metadata)
	}
}

func TestIngestBatchReportsSuccessWhenAllLand(t *testing.T) {
	sink := &captureSink{}
	svc := NewService(activeSourceStore(), sink, zerolog.Nop())

	result := svc.IngestBatch(context.Background(), Batch{
		SourceType: "news_article",
		Action:     "news_fetch",
		Requests: []Request{
			{SourceID: 1, Title: "Checkpoint reopened", Content: "Traffic resumed at dawn."},
		},
	})

	if result.Created != 1 || result.Rejected != 0 || result.Failed != 0 {
		t.Fatalf("unexpected batch result: %+v", result)
	}
	if len(sink.entries) != 1 || sink.entries[0].Status != monlog.StatusSuccess {
		t.Fatalf("expected one success entry, got %+v", sink.entries)
	}
}
