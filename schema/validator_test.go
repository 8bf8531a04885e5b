package payloadschema

import (
	"encoding/json"
	"testing"
)

func TestValidateMonitorRecord_Valid(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source":"regional-wire",
		"source_type":"news_article",
		"title":"Shelling reported near the eastern checkpoint",
		"content":"Local authorities confirmed artillery fire at around 05:40.",
		"original_url":"https://example.com/articles/8812",
		"published_at":"2026-03-10T06:15:00Z",
		"summary":"Artillery fire confirmed at dawn.",
		"tags":["shelling","checkpoint"],
		"metadata":{"region":"east"}
	}`)

	record, err := ValidateMonitorRecord(payload)
	if err != nil {
		t.Fatalf("expected record to be valid, got error: %v", err)
	}
	if record.Source != "regional-wire" {
		t.Fatalf("expected source=regional-wire, got %q", record.Source)
	}
	if record.SourceType != "news_article" {
		t.Fatalf("expected source_type=news_article, got %q", record.SourceType)
	}
}

func TestValidateMonitorRecord_MissingRequired(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source":"regional-wire",
		"source_type":"news_article",
		"title":"Missing content field"
	}`)

	if _, err := ValidateMonitorRecord(payload); err == nil {
		t.Fatalf("expected validation to fail for missing content")
	}
}

func TestValidateMonitorRecord_UnknownSourceType(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source":"regional-wire",
		"source_type":"blog_post",
		"title":"Unknown source type",
		"content":"Body text."
	}`)

	if _, err := ValidateMonitorRecord(payload); err == nil {
		t.Fatalf("expected validation to fail for unknown source_type")
	}
}

func TestValidateMonitorRecord_WrongPayloadVersion(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v2",
		"source":"regional-wire",
		"source_type":"news_article",
		"title":"Future version",
		"content":"Body text."
	}`)

	if _, err := ValidateMonitorRecord(payload); err == nil {
		t.Fatalf("expected validation to fail for payload_version v2")
	}
}

func TestValidateMonitorRecord_WhitespaceTitle(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source":"regional-wire",
		"source_type":"news_article",
		"title":"   ",
		"content":"Body text."
	}`)

	if _, err := ValidateMonitorRecord(payload); err == nil {
		t.Fatalf("expected validation to fail for whitespace-only title")
	}
}

func TestValidateMonitorRecord_UnknownField(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source":"regional-wire",
		"source_type":"news_article",
		"title":"Extra field",
		"content":"Body text.",
		"unexpected":"value"
	}`)

	if _, err := ValidateMonitorRecord(payload); err == nil {
		t.Fatalf("expected validation to fail for unknown field")
	}
}

func TestValidateMonitorRecord_TrailingContent(t *testing.T) {
	payload := json.RawMessage(`{"payload_version":"v1","source":"a","source_type":"news_article","title":"T","content":"C"} extra`)

	if _, err := ValidateMonitorRecord(payload); err == nil {
		t.Fatalf("expected validation to fail for trailing content")
	}
}

func TestValidateMonitorRecord_BadPublishedAt(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source":"regional-wire",
		"source_type":"official_page",
		"title":"Bad timestamp",
		"content":"Body text.",
		"published_at":"yesterday"
	}`)

	if _, err := ValidateMonitorRecord(payload); err == nil {
		t.Fatalf("expected validation to fail for non-RFC3339 published_at")
	}
}
