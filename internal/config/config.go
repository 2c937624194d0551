// Package config provides centralized configuration management for the application.
// Values come from struct-tag defaults, an optional YAML file, and environment
// variables (highest precedence), and are validated before the run starts.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Invalid college code policies.
const (
	InvalidCodeAbort = "abort"
	InvalidCodeFlag  = "flag"
)

// Lookup backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Paths    PathsConfig    `yaml:"paths"`
	Join     JoinConfig     `yaml:"join"`
	Lookup   LookupConfig   `yaml:"lookup"`
	Database DatabaseConfig `yaml:"database"`
	Publish  PublishConfig  `yaml:"publish"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PathsConfig names the three files a run touches.
type PathsConfig struct {
	// Reference is the college information table (default: college_information.csv)
	Reference string `yaml:"reference" env:"REFERENCE_PATH" default:"college_information.csv"`

	// Input is the cutoffs table to enrich (default: combined_cutoffs.csv)
	Input string `yaml:"input" env:"INPUT_PATH" default:"combined_cutoffs.csv"`

	// Output is where the enriched table is written (default: combined_cutoffs_with_info.csv)
	Output string `yaml:"output" env:"OUTPUT_PATH" default:"combined_cutoffs_with_info.csv"`
}

// JoinConfig controls per-row behavior of the transform.
type JoinConfig struct {
	// InvalidCodes is "abort" (fail the run) or "flag" (write Unknown and continue)
	InvalidCodes string `yaml:"invalid_codes" env:"INVALID_CODE_POLICY" default:"abort"`
}

// LookupConfig selects where the reference mapping lives during a run.
type LookupConfig struct {
	// Backend is memory, sqlite, or postgres (default: memory)
	Backend string `yaml:"backend" env:"LOOKUP_BACKEND" default:"memory"`

	// SQLitePath is the index file for the sqlite backend
	SQLitePath string `yaml:"sqlite_path" env:"LOOKUP_SQLITE_PATH" default:"college_information.db"`

	// Table is the reference table name for the postgres backend
	Table string `yaml:"table" env:"LOOKUP_TABLE" default:"college_information"`

	// CacheSize is the LRU size in front of disk backends; 0 disables it
	CacheSize int `yaml:"cache_size" env:"LOOKUP_CACHE_SIZE" default:"4096"`
}

// DatabaseConfig holds PostgreSQL connection settings. Only needed for the
// postgres lookup backend or publishing.
type DatabaseConfig struct {
	URL             string        `yaml:"url" env:"DATABASE_URL" envAlt:"DB_URL"`
	MaxConns        int           `yaml:"max_conns" env:"DB_MAX_CONNS" default:"4"`
	MinConns        int           `yaml:"min_conns" env:"DB_MIN_CONNS" default:"0"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// PublishConfig controls the optional copy of the output into PostgreSQL.
type PublishConfig struct {
	Enabled bool   `yaml:"enabled" env:"PUBLISH_ENABLED" default:"false"`
	Table   string `yaml:"table" env:"PUBLISH_TABLE" default:"cutoffs_with_info"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `yaml:"level" env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `yaml:"format" env:"LOG_FORMAT" default:"text"`
}

// NeedsDatabase reports whether any configured component talks to PostgreSQL.
func (c *Config) NeedsDatabase() bool {
	return strings.EqualFold(c.Lookup.Backend, BackendPostgres) || c.Publish.Enabled
}

// String returns a safe string representation of the config for logging.
// The database URL is masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Paths: {Reference: %q, Input: %q, Output: %q}, ",
		c.Paths.Reference, c.Paths.Input, c.Paths.Output)
	fmt.Fprintf(&b, "Join: {InvalidCodes: %q}, ", c.Join.InvalidCodes)
	fmt.Fprintf(&b, "Lookup: {Backend: %q, CacheSize: %d}, ", c.Lookup.Backend, c.Lookup.CacheSize)
	if c.Database.URL != "" {
		b.WriteString("Database: {URL: [MASKED]}, ")
	}
	fmt.Fprintf(&b, "Publish: {Enabled: %v, Table: %q}, ", c.Publish.Enabled, c.Publish.Table)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
