package coordinator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/chunkdoc/internal/backend"
	"github.com/ziadkadry99/chunkdoc/internal/cache"
	"github.com/ziadkadry99/chunkdoc/internal/chunker"
	"github.com/ziadkadry99/chunkdoc/internal/generator"
)

// fakeGenerator documents a chunk as "# title\n\ndoc for <code>".
type fakeGenerator struct {
	mu       sync.Mutex
	calls    []generator.Request
	fail     map[string]error
	panicOn  string
	maxDelay time.Duration
	cost     decimal.Decimal
	tokens   int
}

func (g *fakeGenerator) Generate(ctx context.Context, req generator.Request) (*generator.Result, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	err := g.fail[req.Code]
	g.mu.Unlock()

	if g.panicOn != "" && req.Code == g.panicOn {
		panic("boom")
	}
	if g.maxDelay > 0 {
		select {
		case <-time.After(time.Duration(rand.Int64N(int64(g.maxDelay)))):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &generator.Result{
		Documentation: "# title\n\ndoc for " + req.Code,
		Usage:         generator.Usage{TotalTokens: g.tokens, TotalCost: g.cost},
	}, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func newCache(t *testing.T) *cache.ContentCache {
	t.Helper()
	store, err := backend.NewMemory(100)
	require.NoError(t, err)
	return cache.New(store, cache.Options{})
}

func makeChunks(contents ...string) []chunker.Chunk {
	chunks := make([]chunker.Chunk, len(contents))
	for i, c := range contents {
		chunks[i] = chunker.Chunk{
			Ordinal:   i,
			StartLine: i*10 + 1,
			EndLine:   i*10 + 10,
			Type:      chunker.TypeModule,
			Content:   c,
		}
	}
	return chunks
}

func TestProcessKeepsChunkOrder(t *testing.T) {
	contents := make([]string, 12)
	for i := range contents {
		contents[i] = fmt.Sprintf("chunk-%02d", i)
	}
	gen := &fakeGenerator{maxDelay: 20 * time.Millisecond, cost: decimal.RequireFromString("0.01"), tokens: 100}
	c := New(newCache(t), gen, Options{Workers: 4})

	doc, m, err := c.Process(context.Background(), "big.py", makeChunks(contents...))
	require.NoError(t, err)

	last := -1
	for _, s := range contents {
		idx := strings.Index(doc, "doc for "+s)
		require.Greater(t, idx, last, "chunk %s out of order", s)
		last = idx
	}
	assert.Equal(t, 12, m.TotalChunks)
	assert.Equal(t, 12, m.CacheMisses)
	assert.Equal(t, int64(1200), m.TotalTokens)
	assert.True(t, m.TotalCost.Equal(decimal.RequireFromString("0.12")), "cost %s", m.TotalCost)
}

func TestProcessWarmRerunHitsCache(t *testing.T) {
	cc := newCache(t)
	gen := &fakeGenerator{cost: decimal.RequireFromString("0.002"), tokens: 50}
	c := New(cc, gen, Options{})
	chunks := makeChunks("a", "b", "c")

	first, _, err := c.Process(context.Background(), "f.py", chunks)
	require.NoError(t, err)
	require.Equal(t, 3, gen.callCount())

	second, m, err := c.Process(context.Background(), "f.py", chunks)
	require.NoError(t, err)
	assert.Equal(t, 3, gen.callCount())
	assert.Equal(t, first, second)
	assert.Equal(t, 3, m.CacheHits)
	assert.Equal(t, 1.0, m.HitRate)
	assert.True(t, m.TotalCost.IsZero())
	assert.Equal(t, int64(150), m.TotalTokens)
}

func TestProcessRegeneratesOnlyChangedChunk(t *testing.T) {
	cc := newCache(t)
	gen := &fakeGenerator{}
	c := New(cc, gen, Options{})

	_, _, err := c.Process(context.Background(), "f.py", makeChunks("A", "B", "C"))
	require.NoError(t, err)

	doc, m, err := c.Process(context.Background(), "f.py", makeChunks("A", "B2", "C"))
	require.NoError(t, err)
	assert.Equal(t, 4, gen.callCount())
	assert.Equal(t, 2, m.CacheHits)
	assert.Equal(t, 1, m.CacheMisses)
	assert.InDelta(t, 2.0/3.0, m.HitRate, 1e-9)
	assert.Contains(t, doc, "doc for B2")
	assert.NotContains(t, doc, "doc for B\n")
}

func TestProcessSameContentDifferentOrdinal(t *testing.T) {
	gen := &fakeGenerator{}
	c := New(newCache(t), gen, Options{Workers: 1})

	_, m, err := c.Process(context.Background(), "f.py", makeChunks("same", "same"))
	require.NoError(t, err)
	assert.Equal(t, 2, gen.callCount())
	assert.Equal(t, 0, m.CacheHits)
}

func TestProcessDegradesFailedChunk(t *testing.T) {
	gen := &fakeGenerator{
		fail:   map[string]error{"b": errors.New("provider down")},
		cost:   decimal.RequireFromString("0.5"),
		tokens: 10,
	}
	cc := newCache(t)
	c := New(cc, gen, Options{})

	doc, m, err := c.Process(context.Background(), "f.py", makeChunks("a", "b", "c"))
	require.NoError(t, err)
	assert.Contains(t, doc, "<!-- Error processing chunk 1: provider down -->")
	assert.Contains(t, doc, "doc for a")
	assert.Contains(t, doc, "doc for c")
	assert.Equal(t, 1, m.Failed)
	assert.Equal(t, int64(20), m.TotalTokens)
	assert.True(t, m.TotalCost.Equal(decimal.NewFromInt(1)))
	assert.InDelta(t, 2.0/3.0, m.SuccessRate(), 1e-9)

	// Failures are not cached.
	_, ok := cc.Lookup(context.Background(), cache.ChunkKey("f.py", 1, "b"))
	assert.False(t, ok)
}

func TestProcessRecoversPanic(t *testing.T) {
	gen := &fakeGenerator{panicOn: "b"}
	c := New(newCache(t), gen, Options{})

	doc, m, err := c.Process(context.Background(), "f.py", makeChunks("a", "b"))
	require.NoError(t, err)
	assert.Contains(t, doc, "<!-- Error processing chunk 1: panic: boom -->")
	assert.Equal(t, 1, m.Failed)
}

func TestProcessCancelledContext(t *testing.T) {
	gen := &fakeGenerator{}
	c := New(newCache(t), gen, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	var (
		doc string
		m   Metrics
		err error
	)
	go func() {
		defer close(done)
		doc, m, err = c.Process(ctx, "f.py", makeChunks("a", "b", "c"))
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Process did not return after cancellation")
	}
	require.NoError(t, err)
	assert.Equal(t, 3, m.Failed)
	assert.Equal(t, 0, gen.callCount())
	assert.Equal(t, 3, strings.Count(doc, "<!-- Error processing chunk"))
}

func TestProcessEmptyChunkList(t *testing.T) {
	c := New(newCache(t), &fakeGenerator{}, Options{})

	doc, m, err := c.Process(context.Background(), "empty.py", nil)
	require.NoError(t, err)
	assert.Equal(t, "# Documentation: empty.py\n\n*This file was processed in 0 chunks using boundary-aware chunking.*\n", doc)
	assert.Equal(t, 0, m.TotalChunks)
	assert.Equal(t, 0.0, m.HitRate)
	assert.True(t, m.TotalCost.IsZero())
}

func TestProcessRejectsInvalidInput(t *testing.T) {
	c := New(newCache(t), &fakeGenerator{}, Options{})

	_, _, err := c.Process(context.Background(), "", makeChunks("a"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	dup := makeChunks("a", "b")
	dup[1].Ordinal = 0
	_, _, err = c.Process(context.Background(), "f.py", dup)
	assert.ErrorIs(t, err, ErrInvalidInput)

	gap := makeChunks("a", "b")
	gap[1].Ordinal = 5
	_, _, err = c.Process(context.Background(), "f.py", gap)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

type failingStoreCache struct{ *cache.ContentCache }

func (failingStoreCache) Store(context.Context, cache.StoreRequest) error {
	return errors.New("disk full")
}

func TestProcessIgnoresStoreFailure(t *testing.T) {
	gen := &fakeGenerator{}
	c := New(failingStoreCache{newCache(t)}, gen, Options{})

	doc, m, err := c.Process(context.Background(), "f.py", makeChunks("a"))
	require.NoError(t, err)
	assert.Contains(t, doc, "doc for a")
	assert.Equal(t, 0, m.Failed)
}

func TestProcessStoresChunkMetadata(t *testing.T) {
	cc := newCache(t)
	gen := &fakeGenerator{cost: decimal.RequireFromString("0.004215"), tokens: 321}
	c := New(cc, gen, Options{})

	_, _, err := c.Process(context.Background(), "pkg/f.py", makeChunks("a", "b"))
	require.NoError(t, err)

	e, ok := cc.Lookup(context.Background(), cache.ChunkKey("pkg/f.py", 1, "b"))
	require.True(t, ok)
	assert.Equal(t, "pkg/f.py#chunk1", e.FilePath)
	assert.Equal(t, "11-20", e.Metadata[cache.MetaChunkLines])
	assert.Equal(t, int64(321), e.Metadata.Tokens())
	assert.True(t, e.Metadata.Cost().Equal(decimal.RequireFromString("0.004215")))
	assert.False(t, e.HasSource())
}

func TestProcessRetainsSourceWhenEnabled(t *testing.T) {
	cc := newCache(t)
	c := New(cc, &fakeGenerator{}, Options{RetainSource: true})

	_, _, err := c.Process(context.Background(), "f.py", makeChunks("print(1)"))
	require.NoError(t, err)

	e, ok := cc.Lookup(context.Background(), cache.ChunkKey("f.py", 0, "print(1)"))
	require.True(t, ok)
	require.True(t, e.HasSource())
	assert.Equal(t, "print(1)", *e.Source)
}

func TestProcessPassesChunkContext(t *testing.T) {
	gen := &fakeGenerator{}
	c := New(newCache(t), gen, Options{})
	chunks := makeChunks("def f(): pass")
	chunks[0].Elements = []string{"f"}
	chunks[0].Type = chunker.TypeFunction

	_, _, err := c.Process(context.Background(), "mod.py", chunks)
	require.NoError(t, err)
	require.Equal(t, 1, gen.callCount())
	req := gen.calls[0]
	assert.Equal(t, "mod.py (Chunk 1)", req.FilePath)
	assert.Contains(t, req.Context, "This is part of a larger file (mod.py).")
	assert.Contains(t, req.Context, "- Lines: 1-10")
	assert.Contains(t, req.Context, "- Type: function")
	assert.Contains(t, req.Context, "- Contains: f")
}

func TestProcessReportsProgress(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []Progress
	)
	c := New(newCache(t), &fakeGenerator{}, Options{OnProgress: func(p Progress) {
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
	}})

	_, _, err := c.Process(context.Background(), "f.py", makeChunks("a", "b", "c"))
	require.NoError(t, err)
	require.Len(t, seen, 3)
	maxDone := 0
	for _, p := range seen {
		assert.Equal(t, 3, p.Total)
		maxDone = max(maxDone, p.Done)
	}
	assert.Equal(t, 3, maxDone)
}

func TestMergeFormat(t *testing.T) {
	chunks := []chunker.Chunk{
		{Ordinal: 0, StartLine: 1, EndLine: 40, Elements: []string{"load", "Parser"}},
		{Ordinal: 1, StartLine: 36, EndLine: 80},
	}
	results := []ChunkResult{
		{Ordinal: 0, Documentation: "# Title\n\nFirst part.\n"},
		{Ordinal: 1, Documentation: "Second part."},
	}

	want := strings.Join([]string{
		"# Documentation: app.py",
		"",
		"*This file was processed in 2 chunks using boundary-aware chunking.*",
		"",
		"## Chunk 1: Lines 1-40",
		"",
		"*Contains: load, Parser*",
		"",
		"First part.",
		"",
		"---",
		"",
		"## Chunk 2: Lines 36-80",
		"",
		"Second part.",
		"",
		"---",
		"",
	}, "\n")
	assert.Equal(t, want, Merge("app.py", chunks, results))
}
