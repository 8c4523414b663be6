package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aretw0/espalier/internal/config"
	"github.com/aretw0/espalier/pkg/adapters/file"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/adapters/postgres"
	"github.com/aretw0/espalier/pkg/adapters/redis"
	"github.com/aretw0/espalier/pkg/adapters/s3"
	"github.com/aretw0/espalier/pkg/persistence/middleware"
	"github.com/aretw0/espalier/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultStorePath is used by the file backend when no path is configured.
var DefaultStorePath = filepath.Join(".espalier", "runs")

// buildStore returns nil for the "none" backend.
func (a *App) buildStore(ctx context.Context, rdb *backend.Client) (ports.SnapshotStore, error) {
	cfg := a.Config.Store

	var store ports.SnapshotStore
	switch cfg.Backend {
	case config.StoreNone:
		return nil, nil
	case config.StoreMemory:
		store = memory.NewStore()
	case config.StoreFile:
		path := cfg.Path
		if path == "" {
			path = DefaultStorePath
		}
		store = file.New(path)
	case config.StoreRedis:
		store = redis.NewFromClient(rdb, redis.WithTTL(cfg.TTL))
	case config.StoreS3:
		s, err := s3.NewFromEnv(ctx, cfg.Bucket)
		if err != nil {
			return nil, err
		}
		store = s
	case config.StorePostgres:
		var opts []postgres.Option
		if cfg.Table != "" {
			opts = append(opts, postgres.WithTable(cfg.Table))
		}
		s, pool, err := postgres.Connect(ctx, cfg.DatabaseURL, opts...)
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { pool.Close(); return nil })
		if err := s.Migrate(ctx); err != nil {
			return nil, err
		}
		store = s
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	a.Logger.Debug("snapshot store ready", "backend", cfg.Backend)
	return wrapStore(store, cfg)
}

// wrapStore applies redaction before encryption so masking sees plaintext.
func wrapStore(store ports.SnapshotStore, cfg config.StoreConfig) (ports.SnapshotStore, error) {
	var mws []middleware.Middleware

	if len(cfg.Redact) > 0 {
		mw, err := middleware.NewRedactionMiddleware(cfg.Redact)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern: %w", err)
		}
		mws = append(mws, mw)
	}

	if cfg.EncryptionKey != "" {
		active, err := middleware.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for i, k := range cfg.FallbackKeys {
			key, err := middleware.ParseKey(k)
			if err != nil {
				return nil, fmt.Errorf("fallback key %d: %w", i, err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(enc))
	}

	return middleware.Chain(store, mws...), nil
}
