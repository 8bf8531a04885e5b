package db

import (
	"encoding/json"
	"time"
)

// Content item lifecycle states.
const (
	ContentStatusPending  = "pending"
	ContentStatusAnalyzed = "analyzed"
	ContentStatusError    = "error"
)

// Source maps monitoring.sources.
type Source struct {
	SourceID   int64     `gorm:"column:source_id;primaryKey;autoIncrement"`
	SourceUUID string    `gorm:"column:source_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Name       string    `gorm:"column:name;type:text;not null;unique"`
	Type       string    `gorm:"column:type;type:text;not null"`
	URL        *string   `gorm:"column:url;type:text"`
	Active     bool      `gorm:"column:active;type:boolean;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Source) TableName() string { return "monitoring.sources" }

// ContentItem maps monitoring.content_items.
type ContentItem struct {
	ContentItemID   int64           `gorm:"column:content_item_id;primaryKey;autoIncrement"`
	ContentItemUUID string          `gorm:"column:content_item_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	SourceID        int64           `gorm:"column:source_id;type:bigint;not null"`
	Title           string          `gorm:"column:title;type:text;not null"`
	Content         string          `gorm:"column:content;type:text;not null"`
	Summary         *string         `gorm:"column:summary;type:text"`
	OriginalURL     *string         `gorm:"column:original_url;type:text"`
	PublishedAt     *time.Time      `gorm:"column:published_at;type:timestamptz"`
	Status          string          `gorm:"column:status;type:text;not null;default:pending"`
	Language        *string         `gorm:"column:language;type:text"`
	Tags            json.RawMessage `gorm:"column:tags;type:jsonb"`
	Metadata        json.RawMessage `gorm:"column:metadata;type:jsonb"`
	AIAnalysis      json.RawMessage `gorm:"column:ai_analysis;type:jsonb"`
	CreatedAt       time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (ContentItem) TableName() string { return "monitoring.content_items" }

// TimelineEvent maps monitoring.timeline_events. Rows are lifetime-bound to
// their content item and removed together with it.
type TimelineEvent struct {
	TimelineEventID   int64     `gorm:"column:timeline_event_id;primaryKey;autoIncrement"`
	TimelineEventUUID string    `gorm:"column:timeline_event_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	ContentItemID     int64     `gorm:"column:content_item_id;type:bigint;not null"`
	EventDate         time.Time `gorm:"column:event_date;type:timestamptz;not null"`
	EventType         string    `gorm:"column:event_type;type:text;not null"`
	Importance        int       `gorm:"column:importance;type:integer;not null;default:0"`
	Description       string    `gorm:"column:description;type:text;not null;default:''"`
	CreatedAt         time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (TimelineEvent) TableName() string { return "monitoring.timeline_events" }

// MonitoringLog maps monitoring.monitoring_logs. Append-only.
type MonitoringLog struct {
	MonitoringLogID int64           `gorm:"column:monitoring_log_id;primaryKey;autoIncrement"`
	SourceType      string          `gorm:"column:source_type;type:text;not null"`
	Action          string          `gorm:"column:action;type:text;not null"`
	Status          string          `gorm:"column:status;type:text;not null"`
	Message         string          `gorm:"column:message;type:text;not null;default:''"`
	Metadata        json.RawMessage `gorm:"column:metadata;type:jsonb"`
	CreatedAt       time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (MonitoringLog) TableName() string { return "monitoring.monitoring_logs" }

// DailyAnalytics maps monitoring.daily_analytics.
type DailyAnalytics struct {
	DailyAnalyticsID  int64     `gorm:"column:daily_analytics_id;primaryKey;autoIncrement"`
	Day               time.Time `gorm:"column:day;type:date;not null;unique"`
	TotalItems        int64     `gorm:"column:total_items;type:bigint;not null;default:0"`
	PendingItems      int64     `gorm:"column:pending_items;type:bigint;not null;default:0"`
	AnalyzedItems     int64     `gorm:"column:analyzed_items;type:bigint;not null;default:0"`
	ErrorItems        int64     `gorm:"column:error_items;type:bigint;not null;default:0"`
	NewTimelineEvents int64     `gorm:"column:new_timeline_events;type:bigint;not null;default:0"`
	UpdatedAt         time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (DailyAnalytics) TableName() string { return "monitoring.daily_analytics" }

// WeeklyTrend maps monitoring.weekly_trends.
type WeeklyTrend struct {
	WeeklyTrendID int64     `gorm:"column:weekly_trend_id;primaryKey;autoIncrement"`
	WeekStart     time.Time `gorm:"column:week_start;type:date;not null;unique"`
	Items         int64     `gorm:"column:items;type:bigint;not null;default:0"`
	TopSourceID   *int64    `gorm:"column:top_source_id;type:bigint"`
	AvgImportance *float64  `gorm:"column:avg_importance;type:double precision"`
	UpdatedAt     time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (WeeklyTrend) TableName() string { return "monitoring.weekly_trends" }

func autoMigrateModels() []any {
	return []any{
		&Source{},
		&ContentItem{},
		&TimelineEvent{},
		&MonitoringLog{},
		&DailyAnalytics{},
		&WeeklyTrend{},
	}
}
