// Package coordinator documents the chunks of one file in parallel,
// consulting the content cache per chunk, and merges the results in chunk
// order.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/chunkdoc/internal/cache"
	"github.com/ziadkadry99/chunkdoc/internal/chunker"
	"github.com/ziadkadry99/chunkdoc/internal/generator"
)

// DefaultWorkers is the number of chunks processed at once.
const DefaultWorkers = 5

// DefaultStoreTimeout bounds a cache write made after a successful generation.
const DefaultStoreTimeout = 10 * time.Second

// ErrInvalidInput is returned when the chunk list cannot be processed at all.
var ErrInvalidInput = errors.New("invalid chunk input")

// Generator produces documentation for one chunk.
type Generator interface {
	Generate(ctx context.Context, req generator.Request) (*generator.Result, error)
}

// Cache is the part of cache.ContentCache the coordinator uses.
type Cache interface {
	Lookup(ctx context.Context, key cache.Key) (*cache.Entry, bool)
	Store(ctx context.Context, req cache.StoreRequest) error
}

// Progress is reported after each chunk finishes.
type Progress struct {
	FilePath string
	Done     int
	Total    int
	Ordinal  int
	Cached   bool
	Failed   bool
}

// Options configures a Coordinator.
type Options struct {
	Workers      int
	RetainSource bool
	TTL          time.Duration
	StoreTimeout time.Duration
	Logger       *slog.Logger
	// OnProgress is called from worker goroutines and must be safe for
	// concurrent use.
	OnProgress func(Progress)
}

// Coordinator fans chunk jobs out over a bounded pool.
type Coordinator struct {
	cache  Cache
	gen    Generator
	opts   Options
	logger *slog.Logger
}

// New creates a Coordinator.
func New(c Cache, gen Generator, opts Options) *Coordinator {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{
		cache:  c,
		gen:    gen,
		opts:   opts,
		logger: logger.With("component", "coordinator"),
	}
}

// ChunkResult is the outcome of one chunk job.
type ChunkResult struct {
	Ordinal       int
	Documentation string
	Cost          decimal.Decimal
	Tokens        int64
	Cached        bool
	Source        *string
	// Err is set when the result is a degraded placeholder.
	Err error
}

// Process documents chunks and returns the merged document. Failures of
// individual chunks are folded into the document as error markers; only
// input that cannot be scheduled is reported as an error.
func (c *Coordinator) Process(ctx context.Context, filePath string, chunks []chunker.Chunk) (string, Metrics, error) {
	if err := validate(filePath, chunks); err != nil {
		return "", Metrics{}, err
	}

	start := time.Now()
	results := make([]ChunkResult, len(chunks))
	total := len(chunks)
	var done atomic.Int64

	var g errgroup.Group
	g.SetLimit(c.opts.Workers)
	for i := range chunks {
		g.Go(func() error {
			results[i] = c.processChunk(ctx, filePath, chunks[i])
			n := done.Add(1)
			if c.opts.OnProgress != nil {
				c.opts.OnProgress(Progress{
					FilePath: filePath,
					Done:     int(n),
					Total:    total,
					Ordinal:  results[i].Ordinal,
					Cached:   results[i].Cached,
					Failed:   results[i].Err != nil,
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(results, func(a, b int) bool { return results[a].Ordinal < results[b].Ordinal })
	doc := Merge(filePath, chunks, results)
	m := aggregate(results)

	c.logger.Info("processed chunks", "path", filePath, "chunks", m.TotalChunks,
		"cache_hits", m.CacheHits, "failed", m.Failed, "cost", m.TotalCost.String(),
		"duration", time.Since(start))
	return doc, m, nil
}

func validate(filePath string, chunks []chunker.Chunk) error {
	if filePath == "" {
		return fmt.Errorf("%w: empty file path", ErrInvalidInput)
	}
	seen := make([]bool, len(chunks))
	for _, ch := range chunks {
		if ch.Ordinal < 0 || ch.Ordinal >= len(chunks) {
			return fmt.Errorf("%w: ordinal %d outside [0, %d)", ErrInvalidInput, ch.Ordinal, len(chunks))
		}
		if seen[ch.Ordinal] {
			return fmt.Errorf("%w: duplicate ordinal %d", ErrInvalidInput, ch.Ordinal)
		}
		seen[ch.Ordinal] = true
	}
	return nil
}

// processChunk runs the lookup, generate and store steps for one chunk.
// It always returns a result; faults become degraded results.
func (c *Coordinator) processChunk(ctx context.Context, filePath string, ch chunker.Chunk) (res ChunkResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("chunk task panicked", "path", filePath, "chunk", ch.Ordinal, "panic", r)
			res = degraded(ch.Ordinal, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return degraded(ch.Ordinal, err)
	}

	key := cache.ChunkKey(filePath, ch.Ordinal, ch.Content)
	if e, ok := c.cache.Lookup(ctx, key); ok {
		return ChunkResult{
			Ordinal:       ch.Ordinal,
			Documentation: e.Documentation,
			Cost:          decimal.Zero,
			Tokens:        e.Metadata.Tokens(),
			Cached:        true,
			Source:        e.Source,
		}
	}

	out, err := c.gen.Generate(ctx, generator.Request{
		Code:     ch.Content,
		FilePath: fmt.Sprintf("%s (Chunk %d)", filePath, ch.Ordinal+1),
		Context:  chunkContext(filePath, ch),
	})
	if err != nil {
		c.logger.Warn("chunk generation failed", "path", filePath, "chunk", ch.Ordinal, "error", err)
		return degraded(ch.Ordinal, err)
	}

	var source *string
	if c.opts.RetainSource {
		s := ch.Content
		source = &s
	}

	// The generation is already paid for; keep the write alive past the
	// caller's deadline.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.StoreTimeout)
	defer cancel()
	err = c.cache.Store(storeCtx, cache.StoreRequest{
		Key:           key,
		FilePath:      cache.ChunkPath(filePath, ch.Ordinal),
		Documentation: out.Documentation,
		Metadata: cache.Metadata{
			cache.MetaCost:       out.Usage.TotalCost,
			cache.MetaTokens:     out.Usage.TotalTokens,
			cache.MetaChunkID:    ch.Ordinal,
			cache.MetaChunkLines: ch.Lines(),
		},
		TTL:          c.opts.TTL,
		Source:       source,
		RetainSource: c.opts.RetainSource,
	})
	if err != nil {
		c.logger.Warn("chunk result not cached", "path", filePath, "chunk", ch.Ordinal, "error", err)
	}

	return ChunkResult{
		Ordinal:       ch.Ordinal,
		Documentation: out.Documentation,
		Cost:          out.Usage.TotalCost,
		Tokens:        int64(out.Usage.TotalTokens),
		Source:        source,
	}
}

func degraded(ordinal int, err error) ChunkResult {
	return ChunkResult{
		Ordinal:       ordinal,
		Documentation: fmt.Sprintf("<!-- Error processing chunk %d: %v -->", ordinal, err),
		Cost:          decimal.Zero,
		Err:           err,
	}
}
