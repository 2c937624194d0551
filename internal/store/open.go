// Package store provides the reference lookup backends: in-memory, an
// indexed SQLite file, and a PostgreSQL table, optionally behind an LRU cache.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/collegemap/internal/config"
	"github.com/JonMunkholm/collegemap/internal/core"
)

// ErrNoDatabase is returned when the postgres backend is selected without a pool.
var ErrNoDatabase = errors.New("postgres lookup backend requires a database connection")

// Open builds the backend named by cfg.Backend. db is only used by the
// postgres backend and may be nil otherwise. The returned close func is
// never nil.
func Open(ctx context.Context, cfg config.LookupConfig, db DB) (core.ReferenceStore, func() error, error) {
	noop := func() error { return nil }

	var (
		s       core.ReferenceStore
		closeFn = noop
	)

	switch strings.ToLower(cfg.Backend) {
	case "", config.BackendMemory:
		// The map already answers lookups in O(1); a cache would only add copies.
		return core.ReferenceMap{}, noop, nil

	case config.BackendSQLite:
		lite, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		s, closeFn = lite, lite.Close

	case config.BackendPostgres:
		if db == nil {
			return nil, noop, ErrNoDatabase
		}
		s = NewPostgres(db, cfg.Table)

	default:
		return nil, noop, fmt.Errorf("unknown lookup backend %q", cfg.Backend)
	}

	if cfg.CacheSize > 0 {
		cached, err := NewCached(s, cfg.CacheSize)
		if err != nil {
			closeFn()
			return nil, noop, err
		}
		s = cached
	}

	return s, closeFn, nil
}
