// Package costlog keeps a ledger of documentation requests and what they
// cost.
package costlog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is one ledger row.
type Record struct {
	ID           string          `json:"id"`
	RequestID    string          `json:"request_id"`
	FilePath     string          `json:"file_path"`
	CacheKey     string          `json:"cache_key"`
	Cached       bool            `json:"cached"`
	Chunked      bool            `json:"chunked"`
	TotalChunks  int             `json:"total_chunks"`
	CacheHits    int             `json:"cache_hits"`
	FailedChunks int             `json:"failed_chunks"`
	Cost         decimal.Decimal `json:"cost"`
	Tokens       int64           `json:"tokens"`
	Duration     time.Duration   `json:"-"`
	DurationMS   int64           `json:"duration_ms"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Summary aggregates the ledger over a period.
type Summary struct {
	Since           time.Time       `json:"since"`
	Requests        int             `json:"requests"`
	CachedRequests  int             `json:"cached_requests"`
	ChunkedRequests int             `json:"chunked_requests"`
	TotalChunks     int             `json:"total_chunks"`
	ChunkCacheHits  int             `json:"chunk_cache_hits"`
	FailedChunks    int             `json:"failed_chunks"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	TotalTokens     int64           `json:"total_tokens"`
}
