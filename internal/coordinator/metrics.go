package coordinator

import "github.com/shopspring/decimal"

// Metrics aggregates one Process call.
type Metrics struct {
	TotalCost   decimal.Decimal `json:"total_cost"`
	TotalTokens int64           `json:"total_tokens"`
	TotalChunks int             `json:"total_chunks"`
	CacheHits   int             `json:"cache_hits"`
	CacheMisses int             `json:"cache_misses"`
	Failed      int             `json:"failed_chunks"`
	// HitRate is CacheHits/TotalChunks in [0, 1], zero when there are no chunks.
	HitRate float64 `json:"cache_hit_rate"`
}

// SuccessRate is the fraction of chunks that did not fail, zero when there
// are no chunks.
func (m Metrics) SuccessRate() float64 {
	if m.TotalChunks == 0 {
		return 0
	}
	return float64(m.TotalChunks-m.Failed) / float64(m.TotalChunks)
}

func aggregate(results []ChunkResult) Metrics {
	m := Metrics{TotalCost: decimal.Zero, TotalChunks: len(results)}
	for _, r := range results {
		m.TotalCost = m.TotalCost.Add(r.Cost)
		m.TotalTokens += r.Tokens
		if r.Cached {
			m.CacheHits++
		} else {
			m.CacheMisses++
		}
		if r.Err != nil {
			m.Failed++
		}
	}
	if m.TotalChunks > 0 {
		m.HitRate = float64(m.CacheHits) / float64(m.TotalChunks)
	}
	return m
}
