// Package app wires the configured cache backend, provider, chunker,
// coordinator and cost ledger into a documentation service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ziadkadry99/chunkdoc/internal/backend"
	"github.com/ziadkadry99/chunkdoc/internal/cache"
	"github.com/ziadkadry99/chunkdoc/internal/chunker"
	"github.com/ziadkadry99/chunkdoc/internal/config"
	"github.com/ziadkadry99/chunkdoc/internal/coordinator"
	"github.com/ziadkadry99/chunkdoc/internal/costlog"
	"github.com/ziadkadry99/chunkdoc/internal/db"
	"github.com/ziadkadry99/chunkdoc/internal/docgen"
	"github.com/ziadkadry99/chunkdoc/internal/generator"
	"github.com/ziadkadry99/chunkdoc/internal/llm"
)

// ErrNoProvider is returned by Document on an App built without a provider.
var ErrNoProvider = errors.New("no llm provider configured")

// Options tunes New.
type Options struct {
	Logger *slog.Logger
	// OnProgress receives per-chunk progress from the coordinator.
	OnProgress func(coordinator.Progress)
	// Provider replaces the configured llm provider.
	Provider llm.Provider
	// Offline skips provider construction. Commands that only read the
	// cache or estimate costs use it so no API key is needed.
	Offline bool
}

// App holds the long-lived components of a chunkdoc process.
type App struct {
	Config  *config.Config
	DB      *db.DB
	Store   cache.Store
	Cache   *cache.ContentCache
	Ledger  *costlog.Store
	Chunker *chunker.Chunker
	Docs    *docgen.Service

	logger *slog.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds an App from cfg. The caller must Close it.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a := &App{Config: cfg, DB: database, logger: logger}

	a.Store, err = backend.New(ctx, backend.Options{
		Kind:       backend.Kind(cfg.Cache.Backend),
		MemorySize: cfg.Cache.MemorySize,
		DB:         database,
		Table:      cfg.Cache.TableName,
		Region:     cfg.Cache.Region,
		Endpoint:   cfg.Cache.Endpoint,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating cache backend: %w", err)
	}
	a.Cache = cache.New(a.Store, cache.Options{Logger: logger})
	a.Ledger = costlog.NewStore(database)

	a.Chunker, err = chunker.New(chunker.Options{
		MaxChunkLines: cfg.Chunking.MaxChunkLines,
		MinChunkLines: cfg.Chunking.MinChunkLines,
		OverlapLines:  cfg.Chunking.OverlapLines,
	})
	if err != nil {
		database.Close()
		return nil, err
	}

	gen, err := a.generator(ctx, opts)
	if err != nil {
		database.Close()
		return nil, err
	}

	ttl := cache.TTLFromHours(cfg.Cache.TTLHours)
	coord := coordinator.New(a.Cache, gen, coordinator.Options{
		Workers:      cfg.MaxConcurrency,
		RetainSource: cfg.Cache.RetainSource,
		TTL:          ttl,
		Logger:       logger,
		OnProgress:   opts.OnProgress,
	})
	a.Docs = docgen.New(a.Cache, a.Chunker, gen, coord, docgen.Options{
		Languages:    cfg.Languages,
		RetainSource: cfg.Cache.RetainSource,
		TTL:          ttl,
		Model:        cfg.Model,
		MaxTokens:    cfg.MaxTokens,
		Ledger:       a.Ledger,
		Logger:       logger,
	})

	janitorCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		backend.RunJanitor(janitorCtx, a.Store, cfg.Cache.PurgeInterval, logger)
	}()

	logger.Debug("app ready", "backend", a.Store.Name(), "provider", cfg.Provider, "model", cfg.Model,
		"workers", cfg.MaxConcurrency, "db", database.Path())
	return a, nil
}

func (a *App) generator(ctx context.Context, opts Options) (coordinator.Generator, error) {
	if opts.Offline && opts.Provider == nil {
		return offlineGenerator{}, nil
	}
	provider := opts.Provider
	if provider == nil {
		var err error
		provider, err = llm.NewProvider(ctx, llm.Options{
			Provider:     string(a.Config.Provider),
			Model:        a.Config.Model,
			BaseURL:      a.Config.OpenAIBaseURL,
			Region:       a.Config.Bedrock.Region,
			Profile:      a.Config.Bedrock.Profile,
			RateLimitRPM: a.Config.RateLimitRPM,
		})
		if err != nil {
			return nil, fmt.Errorf("creating LLM provider: %w", err)
		}
	}
	return generator.New(provider, generator.Options{
		Model:     a.Config.Model,
		MaxTokens: a.Config.MaxTokens,
		Logger:    a.logger,
	}), nil
}

// Close stops the janitor and closes the database.
func (a *App) Close() error {
	a.cancel()
	a.wg.Wait()
	return a.DB.Close()
}

type offlineGenerator struct{}

func (offlineGenerator) Generate(context.Context, generator.Request) (*generator.Result, error) {
	return nil, ErrNoProvider
}
