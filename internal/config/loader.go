package config

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// identRegex limits table names to plain SQL identifiers.
var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Load builds the configuration. Defaults come from struct tags, then the
// YAML file at path (skipped when path is empty), then environment variables.
// Returns an error if the file cannot be parsed or validation fails.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if err := applyDefaults(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if err := applyEnv(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// applyDefaults sets every field that carries a default tag.
func applyDefaults(v reflect.Value) error {
	return walk(v, func(field reflect.StructField, fieldVal reflect.Value) error {
		def, ok := field.Tag.Lookup("default")
		if !ok || def == "" {
			return nil
		}
		if err := setField(fieldVal, def); err != nil {
			return fmt.Errorf("invalid default for %s=%q: %w", field.Name, def, err)
		}
		return nil
	})
}

// applyEnv overrides fields whose env (or envAlt) variable is set.
func applyEnv(v reflect.Value) error {
	return walk(v, func(field reflect.StructField, fieldVal reflect.Value) error {
		envName := field.Tag.Get("env")
		if envName == "" {
			return nil
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" {
			if alt := field.Tag.Get("envAlt"); alt != "" {
				value = os.Getenv(alt)
			}
		}
		if value == "" {
			return nil
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
		return nil
	})
}

// walk visits every settable leaf field, recursing into nested structs.
func walk(v reflect.Value, fn func(reflect.StructField, reflect.Value) error) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := walk(fieldVal, fn); err != nil {
				return err
			}
			continue
		}

		if err := fn(field, fieldVal); err != nil {
			return err
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Paths.Reference) == "" {
		errs = append(errs, "REFERENCE_PATH must not be empty")
	}
	if strings.TrimSpace(c.Paths.Input) == "" {
		errs = append(errs, "INPUT_PATH must not be empty")
	}
	if strings.TrimSpace(c.Paths.Output) == "" {
		errs = append(errs, "OUTPUT_PATH must not be empty")
	}
	if c.Paths.Output != "" && (c.Paths.Output == c.Paths.Input || c.Paths.Output == c.Paths.Reference) {
		errs = append(errs, fmt.Sprintf("OUTPUT_PATH (%q) must differ from the input files", c.Paths.Output))
	}

	switch strings.ToLower(c.Join.InvalidCodes) {
	case InvalidCodeAbort, InvalidCodeFlag:
	default:
		errs = append(errs, fmt.Sprintf("INVALID_CODE_POLICY (%q) must be one of: abort, flag", c.Join.InvalidCodes))
	}

	switch strings.ToLower(c.Lookup.Backend) {
	case BackendMemory:
	case BackendSQLite:
		if c.Lookup.SQLitePath == "" {
			errs = append(errs, "LOOKUP_SQLITE_PATH is required for the sqlite backend")
		}
	case BackendPostgres:
		if !identRegex.MatchString(c.Lookup.Table) {
			errs = append(errs, fmt.Sprintf("LOOKUP_TABLE (%q) must be a plain identifier", c.Lookup.Table))
		}
	default:
		errs = append(errs, fmt.Sprintf("LOOKUP_BACKEND (%q) must be one of: memory, sqlite, postgres", c.Lookup.Backend))
	}
	if c.Lookup.CacheSize < 0 {
		errs = append(errs, "LOOKUP_CACHE_SIZE must be non-negative")
	}

	if c.Publish.Enabled && !identRegex.MatchString(c.Publish.Table) {
		errs = append(errs, fmt.Sprintf("PUBLISH_TABLE (%q) must be a plain identifier", c.Publish.Table))
	}

	if c.NeedsDatabase() {
		if c.Database.URL == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres backend or publishing")
		}
		if c.Database.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.Database.MinConns < 0 {
			errs = append(errs, "DB_MIN_CONNS must be non-negative")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
				c.Database.MaxConns, c.Database.MinConns))
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
