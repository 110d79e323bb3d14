// Package config defines service configuration and its validation.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aaronukgarcia/prixsix/internal/domain/scoring"
)

// Supported record store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DBDriver selects the record store: sqlite, postgres, or memory.
	DBDriver string `koanf:"db_driver"`
	// DBDSN is the file path for sqlite or the connection string for postgres.
	DBDSN string `koanf:"db_dsn"`
	// DBMaxOpenConns caps pooled connections; 0 keeps the driver default.
	DBMaxOpenConns    int           `koanf:"db_max_open_conns"`
	DBConnMaxLifetime time.Duration `koanf:"db_conn_max_lifetime"`
	// SeedPath optionally names a YAML seed imported at startup.
	SeedPath string `koanf:"seed_path"`

	// PageSize is the default windowed page size; MaxPageSize caps ?limit.
	PageSize    int `koanf:"page_size"`
	MaxPageSize int `koanf:"max_page_size"`

	// FetchWorkers sizes the per-event loader pool.
	FetchWorkers int `koanf:"fetch_workers"`
	// ScoreCacheSize bounds cached events; <= 0 is unbounded.
	ScoreCacheSize int `koanf:"score_cache_size"`

	// ScoringPreset is graded or flat. Positive point fields override it.
	ScoringPreset   string `koanf:"scoring_preset"`
	PointsExact     int    `koanf:"points_exact"`
	PointsOneOff    int    `koanf:"points_one_off"`
	PointsTwoOff    int    `koanf:"points_two_off"`
	PointsFar       int    `koanf:"points_far"`
	CleanSweepBonus int    `koanf:"clean_sweep_bonus"`

	// MCPEnabled mounts the MCP endpoint at /mcp.
	MCPEnabled bool `koanf:"mcp_enabled"`
}

// New creates a Config with defaults. Context is accepted first to follow
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		DBDriver:          DriverSQLite,
		DBDSN:             "prixsix.db",
		DBConnMaxLifetime: 30 * time.Minute,
		PageSize:          25,
		MaxPageSize:       100,
		FetchWorkers:      4,
		ScoreCacheSize:    512,
		ScoringPreset:     scoring.PresetGraded,
		MCPEnabled:        true,
	}
}

// ScoringTable resolves the preset plus overrides.
func (c *Config) ScoringTable() (scoring.Table, error) {
	base, err := scoring.PresetTable(strings.ToLower(strings.TrimSpace(c.ScoringPreset)))
	if err != nil {
		return scoring.Table{}, err
	}
	t := base.Override(scoring.Table{
		Exact:      c.PointsExact,
		OneOff:     c.PointsOneOff,
		TwoOff:     c.PointsTwoOff,
		Far:        c.PointsFar,
		CleanSweep: c.CleanSweepBonus,
	})
	if err := t.Validate(); err != nil {
		return scoring.Table{}, err
	}
	return t, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("%w: unknown db_driver %q", ErrInvalidConfig, c.DBDriver)
	}
	if c.DBDriver != DriverMemory && c.DBDSN == "" {
		return fmt.Errorf("%w: db_dsn must not be empty for %s", ErrInvalidConfig, c.DBDriver)
	}
	if c.DBMaxOpenConns < 0 {
		return fmt.Errorf("%w: db_max_open_conns must not be negative, got %d", ErrInvalidConfig, c.DBMaxOpenConns)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("%w: page_size must be positive, got %d", ErrInvalidConfig, c.PageSize)
	}
	if c.PageSize > c.MaxPageSize {
		return fmt.Errorf("%w: page_size %d exceeds max_page_size %d", ErrInvalidConfig, c.PageSize, c.MaxPageSize)
	}
	if c.FetchWorkers <= 0 {
		return fmt.Errorf("%w: fetch_workers must be positive, got %d", ErrInvalidConfig, c.FetchWorkers)
	}
	if _, err := c.ScoringTable(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
