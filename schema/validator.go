package payloadschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed monitor_record.schema.json
var monitorRecordSchemaJSON string

// MonitorRecord is one raw record returned by a monitor endpoint before it
// enters the ingestion path.
type MonitorRecord struct {
	PayloadVersion string         `json:"payload_version"`
	Source         string         `json:"source"`
	SourceType     string         `json:"source_type"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	OriginalURL    *string        `json:"original_url,omitempty"`
	PublishedAt    *string        `json:"published_at,omitempty"`
	Summary        *string        `json:"summary,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	AIAnalysis     map[string]any `json:"ai_analysis,omitempty"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateMonitorRecord checks one raw record against the v1 schema and the
// semantic rules the schema cannot express.
func ValidateMonitorRecord(payload json.RawMessage) (*MonitorRecord, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode record JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize record JSON: %w", err)
	}

	var record MonitorRecord
	if err := json.Unmarshal(normalized, &record); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}

	if err := validateSemantics(&record); err != nil {
		return nil, err
	}

	return &record, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("monitor_record.schema.json", strings.NewReader(monitorRecordSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("monitor_record.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("record is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("record contains trailing content")
	}

	return value, nil
}

func validateSemantics(record *MonitorRecord) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}

	if strings.TrimSpace(record.Source) == "" {
		return fmt.Errorf("source must not be empty")
	}
	if strings.TrimSpace(record.Title) == "" {
		return fmt.Errorf("title must not be empty")
	}
	if strings.TrimSpace(record.Content) == "" {
		return fmt.Errorf("content must not be empty")
	}
	if strings.TrimSpace(record.PayloadVersion) != "v1" {
		return fmt.Errorf("payload_version must be v1")
	}

	if record.OriginalURL != nil {
		if err := validateURI("original_url", *record.OriginalURL); err != nil {
			return err
		}
	}
	if record.PublishedAt != nil {
		if _, err := time.Parse(time.RFC3339, strings.TrimSpace(*record.PublishedAt)); err != nil {
			return fmt.Errorf("published_at must be RFC3339: %w", err)
		}
	}

	for i, tag := range record.Tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("tags[%d] must not be empty", i)
		}
	}

	return nil
}

func validateURI(fieldName, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("%s must not be empty", fieldName)
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return fmt.Errorf("%s is not a valid URI: %w", fieldName, err)
	}
	return nil
}
