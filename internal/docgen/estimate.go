package docgen

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ziadkadry99/chunkdoc/internal/cache"
	"github.com/ziadkadry99/chunkdoc/internal/llm"
)

// Estimate is a dry-run prediction for a Document call.
type Estimate struct {
	FilePath        string          `json:"file_path"`
	Lines           int             `json:"lines"`
	Chunked         bool            `json:"chunked"`
	TotalChunks     int             `json:"total_chunks"`
	CachedChunks    int             `json:"cached_chunks"`
	EstimatedTokens int             `json:"estimated_tokens"`
	EstimatedCost   decimal.Decimal `json:"estimated_cost"`
	Model           string          `json:"model"`
}

// Estimate predicts the tokens and cost of documenting the uncached part
// of a file without calling the provider. A whole file counts as one chunk.
func (s *Service) Estimate(ctx context.Context, req Request) (*Estimate, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	est := &Estimate{
		FilePath:      req.FilePath,
		Model:         s.opts.Model,
		EstimatedCost: decimal.Zero,
	}

	if !s.chunker.ShouldChunk(req.Content) {
		est.TotalChunks = 1
		est.Lines = lineCount(req.Content)
		if s.cache.Exists(ctx, cache.FileKey(req.Content)) {
			est.CachedChunks = 1
			return est, nil
		}
		s.addEstimate(est, req.Content)
		return est, nil
	}

	chunks := s.chunker.ChunkFile(req.FilePath, req.Content)
	est.Chunked = true
	est.TotalChunks = len(chunks)
	est.Lines = s.chunker.Summarize(chunks).TotalLines
	for _, ch := range chunks {
		if s.cache.Exists(ctx, cache.ChunkKey(req.FilePath, ch.Ordinal, ch.Content)) {
			est.CachedChunks++
			continue
		}
		s.addEstimate(est, ch.Content)
	}
	return est, nil
}

// addEstimate assumes the answer is as long as the code, up to MaxTokens.
func (s *Service) addEstimate(est *Estimate, code string) {
	in := llm.EstimateTokens(code) + promptOverheadTokens
	out := min(llm.EstimateTokens(code), s.opts.MaxTokens)
	est.EstimatedTokens += in + out
	est.EstimatedCost = est.EstimatedCost.Add(llm.EstimateCost(s.opts.Model, in, out))
}

// promptOverheadTokens approximates the system prompt and instructions.
const promptOverheadTokens = 250

func lineCount(content string) int {
	n := strings.Count(content, "\n")
	if content != "" && !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}
