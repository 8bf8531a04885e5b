package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"crisiswatch/internal/db"
	"crisiswatch/internal/globaltime"
	"crisiswatch/internal/ingest"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 200
)

type ingestRequestBody struct {
	SourceID    int64           `json:"sourceId"`
	Title       string          `json:"title"`
	Content     string          `json:"content"`
	Summary     string          `json:"summary"`
	OriginalURL string          `json:"originalUrl"`
	PublishedAt *time.Time      `json:"publishedAt"`
	Tags        []string        `json:"tags"`
	Metadata    map[string]any  `json:"metadata"`
	AIAnalysis  json.RawMessage `json:"aiAnalysis"`
}

type ingestItemView struct {
	ID          int64      `json:"id"`
	UUID        string     `json:"uuid"`
	SourceID    int64      `json:"sourceId"`
	SourceName  string     `json:"sourceName"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	Language    *string    `json:"language,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.store.Ping(c.Request().Context()); err != nil {
		s.logger.Error().Err(err).Msg("health check ping failed")
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"time":   globaltime.UTC(),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "crisiswatch",
		"time":    globaltime.UTC(),
	})
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.store.QueryStats(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query stats failed")
		return internalError(c, "Failed to load stats", err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

type sourceView struct {
	ID        int64     `json:"id"`
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	URL       *string   `json:"url,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// handleSources lists the active sources items can be ingested under, for the
// dashboard's source picker.
func (s *Server) handleSources(c echo.Context) error {
	sources, err := s.store.ListActiveSources(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query active sources failed")
		return internalError(c, "Failed to load sources", err.Error())
	}

	items := make([]sourceView, 0, len(sources))
	for _, src := range sources {
		items = append(items, sourceView{
			ID:        src.SourceID,
			UUID:      src.SourceUUID,
			Name:      src.Name,
			Type:      src.Type,
			URL:       src.URL,
			CreatedAt: src.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"sources": items,
		"count":   len(items),
	})
}

func (s *Server) handleIngest(c echo.Context) error {
	var body ingestRequestBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "Invalid request body", err.Error())
	}

	created, err := s.ingester.CreateItem(c.Request().Context(), ingest.Request{
		SourceID:    body.SourceID,
		Title:       body.Title,
		Content:     body.Content,
		Summary:     body.Summary,
		OriginalURL: body.OriginalURL,
		PublishedAt: body.PublishedAt,
		Tags:        body.Tags,
		Metadata:    body.Metadata,
		AIAnalysis:  body.AIAnalysis,
	})
	if err != nil {
		if verr, ok := ingest.AsValidationError(err); ok {
			return badRequest(c, "Validation failed", verr.Fields)
		}
		s.logger.Error().Err(err).Msg("ingest item failed")
		return internalError(c, "Failed to store item", err.Error())
	}

	return c.JSON(http.StatusOK, ingestItemView{
		ID:          created.Item.ContentItemID,
		UUID:        created.Item.ContentItemUUID,
		SourceID:    created.Source.SourceID,
		SourceName:  created.Source.Name,
		Title:       created.Item.Title,
		Status:      created.Item.Status,
		Language:    created.Item.Language,
		PublishedAt: created.Item.PublishedAt,
		CreatedAt:   created.Item.CreatedAt,
	})
}

func (s *Server) handleCleanupDuplicates(c echo.Context) error {
	result, err := s.collapser.Collapse(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("duplicate cleanup failed")
		return internalError(c, "Duplicate cleanup failed", err.Error())
	}

	return c.JSON(http.StatusOK, cleanupResponse{
		Success:         true,
		TotalRemoved:    result.TotalRemoved,
		ExactDuplicates: result.ExactDuplicates,
		FuzzyDuplicates: result.FuzzyDuplicates,
		Message:         fmt.Sprintf("Removed %d duplicate items", result.TotalRemoved),
	})
}

func (s *Server) handleSchedulerStatus(c echo.Context) error {
	active := s.sched.ListActive()
	return c.JSON(http.StatusOK, schedulerResponse{
		Success:       true,
		ActiveJobs:    active,
		IsInitialized: s.sched.IsInitialized(),
		Message:       fmt.Sprintf("%d active jobs", len(active)),
	})
}

func (s *Server) handleSchedulerAction(c echo.Context) error {
	var body struct {
		Action string `json:"action"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "Invalid request body", err.Error())
	}

	switch strings.TrimSpace(strings.ToLower(body.Action)) {
	case "initialize":
		if err := s.sched.Initialize(); err != nil {
			s.logger.Error().Err(err).Msg("scheduler initialize failed")
			return internalError(c, "Scheduler initialization failed", err.Error())
		}
		active := s.sched.ListActive()
		return c.JSON(http.StatusOK, schedulerResponse{
			Success:       true,
			ActiveJobs:    active,
			IsInitialized: s.sched.IsInitialized(),
			Message:       "Scheduler initialized",
		})
	case "stop":
		s.sched.StopAll()
		return c.JSON(http.StatusOK, schedulerResponse{
			Success:       true,
			ActiveJobs:    s.sched.ListActive(),
			IsInitialized: s.sched.IsInitialized(),
			Message:       "Scheduler stopped",
		})
	default:
		return badRequest(c, "Unknown action", map[string]string{
			"action": "must be one of: initialize, stop",
		})
	}
}

func (s *Server) handleMonitoringLogs(c echo.Context) error {
	limit, err := parseLimit(c.QueryParam("limit"))
	if err != nil {
		return badRequest(c, "Validation failed", map[string]string{"limit": err.Error()})
	}
	sourceType := strings.TrimSpace(c.QueryParam("sourceType"))

	logs, err := s.store.ListMonitoringLogs(c.Request().Context(), limit, sourceType)
	if err != nil {
		s.logger.Error().Err(err).Msg("query monitoring logs failed")
		return internalError(c, "Failed to load monitoring logs", err.Error())
	}

	items := make([]monitoringLogView, 0, len(logs))
	for _, entry := range logs {
		items = append(items, monitoringLogViewFrom(entry))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"logs":    items,
		"count":   len(items),
	})
}

type monitoringLogView struct {
	ID         int64           `json:"id"`
	SourceType string          `json:"sourceType"`
	Action     string          `json:"action"`
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

func monitoringLogViewFrom(entry db.MonitoringLog) monitoringLogView {
	return monitoringLogView{
		ID:         entry.MonitoringLogID,
		SourceType: entry.SourceType,
		Action:     entry.Action,
		Status:     entry.Status,
		Message:    entry.Message,
		Metadata:   entry.Metadata,
		CreatedAt:  entry.CreatedAt,
	}
}

// parseLimit clamps the requested page size into [1, maxLogLimit].
func parseLimit(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultLogLimit, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < 1 {
		value = 1
	}
	if value > maxLogLimit {
		value = maxLogLimit
	}
	return value, nil
}
