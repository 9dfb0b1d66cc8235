// Package docgen is the entry point of the documentation pipeline: it
// validates a request, picks the whole-file or chunked path and records
// what the request cost.
package docgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ziadkadry99/chunkdoc/internal/cache"
	"github.com/ziadkadry99/chunkdoc/internal/chunker"
	"github.com/ziadkadry99/chunkdoc/internal/coordinator"
	"github.com/ziadkadry99/chunkdoc/internal/costlog"
	"github.com/ziadkadry99/chunkdoc/internal/generator"
	"github.com/ziadkadry99/chunkdoc/internal/walker"
)

var (
	// ErrInvalidRequest is returned for requests missing a path or content.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnsupportedFile is returned for files in a language that is not
	// documented.
	ErrUnsupportedFile = errors.New("unsupported file")
)

// StatusCompleted is the only status a returned Result carries.
const StatusCompleted = "completed"

// StrategyBoundaryAware names the chunking strategy in results.
const StrategyBoundaryAware = "boundary-aware"

const (
	ledgerTimeout = 5 * time.Second
	storeTimeout  = coordinator.DefaultStoreTimeout
)

// Cache is the part of cache.ContentCache the service uses.
type Cache interface {
	coordinator.Cache
	Exists(ctx context.Context, key cache.Key) bool
}

// Ledger records finished requests.
type Ledger interface {
	Record(ctx context.Context, rec costlog.Record) error
}

// Request asks for documentation of one file.
type Request struct {
	FilePath  string `json:"file_path"`
	Content   string `json:"file_content"`
	RequestID string `json:"request_id,omitempty"`
}

// ChunkingInfo describes how a chunked request was processed.
type ChunkingInfo struct {
	TotalChunks  int             `json:"total_chunks"`
	CacheHits    int             `json:"cache_hits"`
	CacheMisses  int             `json:"cache_misses"`
	FailedChunks int             `json:"failed_chunks"`
	HitRate      float64         `json:"cache_hit_rate"`
	Strategy     string          `json:"chunking_strategy"`
	Summary      chunker.Summary `json:"chunk_summary"`
}

// Result is the outcome of Document.
type Result struct {
	RequestID      string          `json:"request_id"`
	FilePath       string          `json:"file_path"`
	Status         string          `json:"status"`
	Documentation  string          `json:"documentation"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	TotalTokens    int64           `json:"total_tokens"`
	ProcessingTime float64         `json:"processing_time"` // seconds
	Cached         bool            `json:"cached"`
	CacheKey       cache.Key       `json:"cache_key"`
	Chunked        bool            `json:"chunked"`
	Chunking       *ChunkingInfo   `json:"chunking_info,omitempty"`
	Source         *string         `json:"source_code,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// Options configures a Service.
type Options struct {
	// Languages restricts documented files; empty allows every recognised
	// language.
	Languages    []string
	RetainSource bool
	TTL          time.Duration
	// Model prices estimates.
	Model     string
	MaxTokens int
	Ledger    Ledger
	Logger    *slog.Logger
}

// Service documents files.
type Service struct {
	cache   Cache
	chunker *chunker.Chunker
	gen     coordinator.Generator
	coord   *coordinator.Coordinator
	opts    Options
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Service.
func New(c Cache, ch *chunker.Chunker, gen coordinator.Generator, coord *coordinator.Coordinator, opts Options) *Service {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		cache:   c,
		chunker: ch,
		gen:     gen,
		coord:   coord,
		opts:    opts,
		logger:  logger.With("component", "docgen"),
		now:     time.Now,
	}
}

func (s *Service) validate(req Request) error {
	if req.FilePath == "" {
		return fmt.Errorf("%w: file_path is required", ErrInvalidRequest)
	}
	if req.Content == "" {
		return fmt.Errorf("%w: file_content is required", ErrInvalidRequest)
	}
	lang := walker.DetectLanguage(req.FilePath)
	if !walker.Supported(lang, s.opts.Languages) {
		return fmt.Errorf("%w: %s (language %s)", ErrUnsupportedFile, req.FilePath, lang)
	}
	return nil
}

// Document produces documentation for one file. Files longer than the
// chunker threshold are split and documented chunk by chunk; failed chunks
// appear as inline markers rather than as an error.
func (s *Service) Document(ctx context.Context, req Request) (*Result, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}

	start := s.now()
	logger := s.logger.With("request_id", req.RequestID, "path", req.FilePath)

	var (
		res *Result
		err error
	)
	if s.chunker.ShouldChunk(req.Content) {
		res, err = s.documentChunked(ctx, req, logger)
	} else {
		res, err = s.documentWhole(ctx, req, logger)
	}
	if err != nil {
		return nil, err
	}

	elapsed := s.now().Sub(start)
	res.RequestID = req.RequestID
	res.FilePath = req.FilePath
	res.Status = StatusCompleted
	res.ProcessingTime = elapsed.Seconds()
	res.Timestamp = s.now().UTC()

	s.record(ctx, res, elapsed, logger)
	logger.Info("documentation generated", "cached", res.Cached, "chunked", res.Chunked,
		"cost", res.TotalCost.String(), "tokens", res.TotalTokens, "duration", elapsed)
	return res, nil
}

func (s *Service) documentWhole(ctx context.Context, req Request, logger *slog.Logger) (*Result, error) {
	key := cache.FileKey(req.Content)
	if e, ok := s.cache.Lookup(ctx, key); ok {
		logger.Debug("whole-file cache hit", "key", key.Short())
		return &Result{
			Documentation: e.Documentation,
			TotalCost:     decimal.Zero,
			TotalTokens:   e.Metadata.Tokens(),
			Cached:        true,
			CacheKey:      key,
			Source:        e.Source,
		}, nil
	}

	started := s.now()
	analysis := chunker.Analyze(req.FilePath, req.Content)
	out, err := s.gen.Generate(ctx, generator.Request{
		Code:     req.Content,
		FilePath: req.FilePath,
		Analysis: analysis,
	})
	if err != nil {
		return nil, fmt.Errorf("generating documentation for %s: %w", req.FilePath, err)
	}

	var source *string
	if s.opts.RetainSource {
		c := req.Content
		source = &c
	}
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	err = s.cache.Store(storeCtx, cache.StoreRequest{
		Key:           key,
		FilePath:      req.FilePath,
		Documentation: out.Documentation,
		Metadata: cache.Metadata{
			cache.MetaCost:           out.Usage.TotalCost,
			cache.MetaTokens:         out.Usage.TotalTokens,
			cache.MetaAnalysis:       analysis.Map(),
			cache.MetaProcessingTime: s.now().Sub(started).Seconds(),
		},
		TTL:          s.opts.TTL,
		Source:       source,
		RetainSource: s.opts.RetainSource,
	})
	if err != nil {
		logger.Warn("documentation not cached", "error", err)
	}

	return &Result{
		Documentation: out.Documentation,
		TotalCost:     out.Usage.TotalCost,
		TotalTokens:   int64(out.Usage.TotalTokens),
		CacheKey:      key,
		Source:        source,
	}, nil
}

func (s *Service) documentChunked(ctx context.Context, req Request, logger *slog.Logger) (*Result, error) {
	chunks := s.chunker.ChunkFile(req.FilePath, req.Content)
	summary := s.chunker.Summarize(chunks)
	logger.Info("chunking file", "chunks", len(chunks), "lines", summary.TotalLines)

	doc, m, err := s.coord.Process(ctx, req.FilePath, chunks)
	if err != nil {
		return nil, fmt.Errorf("processing chunks of %s: %w", req.FilePath, err)
	}

	var source *string
	if s.opts.RetainSource {
		c := req.Content
		source = &c
	}
	return &Result{
		Documentation: doc,
		TotalCost:     m.TotalCost,
		TotalTokens:   m.TotalTokens,
		Cached:        m.TotalChunks > 0 && m.CacheHits == m.TotalChunks,
		CacheKey:      cache.FileKey(req.Content),
		Chunked:       true,
		Chunking: &ChunkingInfo{
			TotalChunks:  m.TotalChunks,
			CacheHits:    m.CacheHits,
			CacheMisses:  m.CacheMisses,
			FailedChunks: m.Failed,
			HitRate:      m.HitRate,
			Strategy:     StrategyBoundaryAware,
			Summary:      summary,
		},
		Source: source,
	}, nil
}

func (s *Service) record(ctx context.Context, res *Result, elapsed time.Duration, logger *slog.Logger) {
	if s.opts.Ledger == nil {
		return
	}
	rec := costlog.Record{
		RequestID: res.RequestID,
		FilePath:  res.FilePath,
		CacheKey:  res.CacheKey.String(),
		Cached:    res.Cached,
		Chunked:   res.Chunked,
		Cost:      res.TotalCost,
		Tokens:    res.TotalTokens,
		Duration:  elapsed,
	}
	if res.Chunking != nil {
		rec.TotalChunks = res.Chunking.TotalChunks
		rec.CacheHits = res.Chunking.CacheHits
		rec.FailedChunks = res.Chunking.FailedChunks
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerTimeout)
	defer cancel()
	if err := s.opts.Ledger.Record(ctx, rec); err != nil {
		logger.Warn("cost ledger write failed", "error", err)
	}
}
