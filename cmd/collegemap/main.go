package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/collegemap/internal/config"
	"github.com/JonMunkholm/collegemap/internal/core"
	"github.com/JonMunkholm/collegemap/internal/logging"
	"github.com/JonMunkholm/collegemap/internal/publish"
	"github.com/JonMunkholm/collegemap/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx = logging.ContextWithRunID(ctx, uuid.NewString())

	err = run(ctx, cfg)
	stop()
	if err != nil {
		msg := core.MapError(err)
		logging.FromContext(ctx).Error(core.FormatUserError(err), "code", msg.Code, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logging.FromContext(ctx)
	logger.Debug("configuration loaded", "config", cfg.String())

	var pool *pgxpool.Pool
	if cfg.NeedsDatabase() {
		p, err := connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer p.Close()
		pool = p
	}

	var db store.DB
	if pool != nil {
		db = pool
	}
	refs, closeStore, err := store.Open(ctx, cfg.Lookup, db)
	if err != nil {
		return err
	}
	defer closeStore()

	var publisher core.Publisher
	if cfg.Publish.Enabled {
		publisher = publish.New(pool, cfg.Publish.Table)
	}

	svc := core.NewService(core.Paths{
		Reference: cfg.Paths.Reference,
		Input:     cfg.Paths.Input,
		Output:    cfg.Paths.Output,
	}, refs, core.ParseInvalidCodePolicy(cfg.Join.InvalidCodes), publisher)

	if _, err := svc.Run(ctx); err != nil {
		return err
	}

	if c, ok := refs.(*store.Cached); ok {
		hits, misses := c.Stats()
		logger.Debug("lookup cache", "hits", hits, "misses", misses)
	}
	return nil
}

func connect(ctx context.Context, dbCfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dbCfg.URL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(dbCfg.MaxConns)
	poolConfig.MinConns = int32(dbCfg.MinConns)
	poolConfig.MaxConnLifetime = dbCfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = dbCfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(dbCfg.URL); err == nil {
		logging.FromContext(ctx).Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}
	return pool, nil
}
