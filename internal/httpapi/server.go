package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"crisiswatch/internal/db"
	"crisiswatch/internal/dedup"
	"crisiswatch/internal/ingest"
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// Handlers depend on these narrow interfaces rather than concrete services so
// tests can substitute fakes.
type itemCreator interface {
	CreateItem(ctx context.Context, req ingest.Request) (*ingest.CreatedItem, error)
}

type collapseRunner interface {
	Collapse(ctx context.Context) (dedup.Result, error)
}

type schedulerControl interface {
	Initialize() error
	StopAll()
	ListActive() []string
	IsInitialized() bool
}

type logLister interface {
	ListMonitoringLogs(ctx context.Context, limit int, sourceType string) ([]db.MonitoringLog, error)
}

type statsQuerier interface {
	QueryStats(ctx context.Context) (*db.StoreStats, error)
}

type sourceLister interface {
	ListActiveSources(ctx context.Context) ([]db.Source, error)
}

type Server struct {
	store     storeAPI
	ingester  itemCreator
	collapser collapseRunner
	sched     schedulerControl
	logger    zerolog.Logger
	opts      Options
}

// storeAPI bundles the read-side store queries the handlers need.
type storeAPI interface {
	logLister
	statsQuerier
	sourceLister
	Ping(ctx context.Context) error
}

func NewServer(store storeAPI, ingester itemCreator, collapser collapseRunner, sched schedulerControl, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8090
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &Server{
		store:     store,
		ingester:  ingester,
		collapser: collapser,
		sched:     sched,
		logger:    logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			AllowedOrigins:  origins,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.buildEcho()

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("crisiswatch api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("crisiswatch api server stopped")
	return nil
}

// buildEcho wires middleware and routes. Split out so handler tests can run
// requests through the full router without binding a port.
func (s *Server) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.opts.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/stats", s.handleStats)
	api.GET("/sources", s.handleSources)
	api.POST("/ingest", s.handleIngest)
	api.POST("/cleanup/duplicates", s.handleCleanupDuplicates)
	api.GET("/scheduler", s.handleSchedulerStatus)
	api.POST("/scheduler", s.handleSchedulerAction)
	api.GET("/monitoring-logs", s.handleMonitoringLogs)

	return e
}

// httpErrorHandler keeps every /api response JSON-shaped even for routing
// errors echo raises itself.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		if status >= 500 {
			_ = errorJSON(c, http.StatusInternalServerError, "Internal server error", nil)
			return
		}
		_ = errorJSON(c, status, message, nil)
		return
	}

	_ = c.String(status, message)
}
