package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/config"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/adapters/openai"
	"github.com/aretw0/espalier/pkg/adapters/redis"
	"github.com/aretw0/espalier/pkg/adapters/tavily"
	"github.com/aretw0/espalier/pkg/observability"
	"github.com/aretw0/espalier/pkg/persistence"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/runs"
	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
)

// App is the wired application shared by the CLI commands.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Service  *espalier.Researcher
	Runs     *runs.Manager
	Store    ports.SnapshotStore
	Metrics  *observability.Metrics
	Recorder *persistence.Recorder

	closers []func(context.Context) error
}

// BuildOption overrides a collaborator the factory would otherwise create.
type BuildOption func(*buildOptions)

type buildOptions struct {
	model     ports.LanguageModel
	searcher  ports.Searcher
	registry  prometheus.Registerer
	storeOnly bool
}

// WithModel replaces the OpenAI client.
func WithModel(m ports.LanguageModel) BuildOption {
	return func(o *buildOptions) { o.model = m }
}

// WithSearcher replaces the configured search provider. The Redis cache
// still wraps it when enabled.
func WithSearcher(s ports.Searcher) BuildOption {
	return func(o *buildOptions) { o.searcher = s }
}

// WithRegistry registers metrics on reg instead of a private registry.
func WithRegistry(reg prometheus.Registerer) BuildOption {
	return func(o *buildOptions) { o.registry = reg }
}

// StoreOnly skips the model and search providers. Commands that only
// inspect persisted runs use it so they work without API keys.
func StoreOnly() BuildOption {
	return func(o *buildOptions) { o.storeOnly = true }
}

// Build wires the application from cfg. Close must be called to flush
// pending snapshots and release connections.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...BuildOption) (*App, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(o.registry),
	}

	if err := app.build(ctx, o); err != nil {
		_ = app.Close(context.Background())
		return nil, err
	}
	return app, nil
}

func (a *App) build(ctx context.Context, o buildOptions) error {
	cfg := a.Config

	var rdb *backend.Client
	if cfg.Store.RedisURL != "" {
		client, err := redis.Connect(ctx, cfg.Store.RedisURL)
		if err != nil {
			return err
		}
		rdb = client
		a.onClose(func(context.Context) error { return client.Close() })
	}

	store, err := a.buildStore(ctx, rdb)
	if err != nil {
		return err
	}
	a.Store = store
	if o.storeOnly {
		if store != nil {
			a.Runs = runs.NewManager(store, a.runOptions(rdb)...)
		}
		return nil
	}

	model := o.model
	if model == nil {
		client, err := openai.New(cfg.LLM, openai.WithLogger(a.Logger))
		if err != nil {
			return err
		}
		model = client
	}

	searcher := o.searcher
	if searcher == nil {
		if searcher, err = a.buildSearcher(); err != nil {
			return err
		}
	}
	if cfg.Search.Cache.Enabled {
		searcher = redis.NewSearchCache(rdb, searcher,
			redis.WithCacheTTL(cfg.Search.Cache.TTL),
			redis.WithCacheLogger(a.Logger),
			redis.WithCacheObserver(a.Metrics.ObserveCache),
		)
	}

	researchOpts := []espalier.Option{
		espalier.WithLogger(a.Logger),
		espalier.WithPipelineConfig(cfg.Pipeline),
		espalier.WithLifecycleHooks(observability.Combine(
			a.Metrics.Hooks(),
			observability.LoggingHooks(a.Logger),
		)),
	}

	if store != nil {
		a.Recorder = persistence.NewRecorder(store,
			persistence.WithLogger(a.Logger),
			persistence.WithSaveTimeout(cfg.Store.SaveTimeout),
			persistence.WithErrorHandler(a.Metrics.SnapshotFailed),
		)
		// Registered after the store so the recorder drains first.
		a.onClose(a.Recorder.Close)
		researchOpts = append(researchOpts, espalier.WithRecorder(a.Recorder))

		a.Runs = runs.NewManager(store, a.runOptions(rdb)...)
	}

	a.Service, err = espalier.New(model, searcher, researchOpts...)
	return err
}

func (a *App) runOptions(rdb *backend.Client) []runs.Option {
	opts := []runs.Option{
		runs.WithLogger(a.Logger),
		runs.WithLockTTL(a.Config.Store.LockTTL),
	}
	if rdb != nil {
		opts = append(opts, runs.WithLocker(redis.NewLocker(rdb, redis.DefaultPrefix)))
	}
	return opts
}

func (a *App) buildSearcher() (ports.Searcher, error) {
	cfg := a.Config.Search
	switch cfg.Provider {
	case config.SearchMemory:
		docs, err := memory.LoadCorpusFile(cfg.CorpusPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load search corpus: %w", err)
		}
		a.Logger.Debug("offline search corpus loaded", "documents", len(docs))
		return memory.NewSearcher(cfg.Tavily.MaxResults, docs...), nil
	default:
		client, err := tavily.New(cfg.Tavily, tavily.WithLogger(a.Logger))
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// CloseTimeout is how long Close waits for pending snapshots on exit.
const CloseTimeout = 15 * time.Second
