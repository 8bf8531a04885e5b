package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"CW_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"CW_DB_MAX_CONNS" default:"8"`

	SchedulerTimezone string `envconfig:"SCHEDULER_TIMEZONE" default:"UTC"`

	SocialMonitorURL   string        `envconfig:"SOCIAL_MONITOR_URL" default:""`
	NewsMonitorURL     string        `envconfig:"NEWS_MONITOR_URL" default:""`
	OfficialMonitorURL string        `envconfig:"OFFICIAL_MONITOR_URL" default:""`
	MonitorTimeout     time.Duration `envconfig:"MONITOR_TIMEOUT" default:"45s"`

	DedupTitlePrefixLen int           `envconfig:"DEDUP_TITLE_PREFIX_LEN" default:"60"`
	DedupTimeWindow     time.Duration `envconfig:"DEDUP_TIME_WINDOW" default:"2h"`
	DedupRecentDays     int           `envconfig:"DEDUP_RECENT_DAYS" default:"7"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("CW_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("CW_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("CW_DB_MIN_CONNS (%d) cannot exceed CW_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if _, err := time.LoadLocation(strings.TrimSpace(c.SchedulerTimezone)); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE %q is not a valid IANA timezone: %w", c.SchedulerTimezone, err)
	}
	if c.DedupTitlePrefixLen < 1 {
		return fmt.Errorf("DEDUP_TITLE_PREFIX_LEN must be >= 1")
	}
	if c.DedupTimeWindow <= 0 {
		return fmt.Errorf("DEDUP_TIME_WINDOW must be positive")
	}
	if c.DedupRecentDays < 1 {
		return fmt.Errorf("DEDUP_RECENT_DAYS must be >= 1")
	}
	if c.MonitorTimeout <= 0 {
		return fmt.Errorf("MONITOR_TIMEOUT must be positive")
	}
	return nil
}

// SchedulerLocation resolves the configured timezone. Validate has already
// checked the name, so failures here fall back to UTC.
func (c *Config) SchedulerLocation() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.SchedulerTimezone))
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}
