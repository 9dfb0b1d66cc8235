// Package generator turns source code into Markdown documentation through
// an LLM provider.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ziadkadry99/chunkdoc/internal/chunker"
	"github.com/ziadkadry99/chunkdoc/internal/llm"
)

// ErrEmptyDocumentation is returned when the provider answers with no text.
var ErrEmptyDocumentation = errors.New("provider returned empty documentation")

// Request is one documentation job.
type Request struct {
	Code     string
	FilePath string // path label shown to the model, e.g. "main.go (Chunk 2)"
	Analysis *chunker.Analysis
	Context  string
}

// Usage reports what a generation consumed.
type Usage struct {
	InputTokens  int             `json:"input_tokens"`
	OutputTokens int             `json:"output_tokens"`
	TotalTokens  int             `json:"total_tokens"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	Model        string          `json:"model"`
}

// Result is the outcome of a generation.
type Result struct {
	Documentation string
	Usage         Usage
	// Truncated is set when the provider stopped at the output token limit.
	Truncated bool
}

// Options tunes a Generator.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	// MaxRetries bounds retries on rate-limit and overload errors.
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Logger         *slog.Logger
}

// Generator documents code with an llm.Provider. It is safe for concurrent
// use when the provider is.
type Generator struct {
	provider llm.Provider
	opts     Options
	logger   *slog.Logger
}

// New creates a Generator.
func New(provider llm.Provider, opts Options) *Generator {
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 4096
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 5
	}
	if opts.InitialBackoff == 0 {
		opts.InitialBackoff = 15 * time.Second
	}
	if opts.MaxBackoff == 0 {
		opts.MaxBackoff = 2 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{
		provider: provider,
		opts:     opts,
		logger:   logger.With("component", "generator", "provider", provider.Name()),
	}
}

// Generate documents req.Code.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	resp, err := g.completeWithRetry(ctx, llm.CompletionRequest{
		Model:       g.opts.Model,
		Messages:    buildMessages(req),
		MaxTokens:   g.opts.MaxTokens,
		Temperature: g.opts.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("llm completion: %w", err)
	}

	doc := strings.TrimSpace(resp.Content)
	if doc == "" {
		return nil, ErrEmptyDocumentation
	}

	model := resp.Model
	if model == "" || !llm.KnownModel(model) {
		model = g.opts.Model
	}
	usage := Usage{
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		TotalTokens:  resp.InputTokens + resp.OutputTokens,
		TotalCost:    llm.EstimateCost(model, resp.InputTokens, resp.OutputTokens),
		Model:        model,
	}
	g.logger.Debug("generated documentation", "path", req.FilePath,
		"input_tokens", usage.InputTokens, "output_tokens", usage.OutputTokens, "cost", usage.TotalCost.String())
	if resp.Truncated {
		g.logger.Warn("documentation truncated at output token limit", "path", req.FilePath,
			"max_tokens", g.opts.MaxTokens, "finish_reason", resp.FinishReason)
	}

	return &Result{Documentation: doc, Usage: usage, Truncated: resp.Truncated}, nil
}

// completeWithRetry calls the LLM with exponential backoff on rate limit errors.
func (g *Generator) completeWithRetry(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	backoff := g.opts.InitialBackoff

	for attempt := 0; ; attempt++ {
		resp, err := g.provider.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !llm.IsRetryable(err) {
			return nil, err
		}
		if attempt == g.opts.MaxRetries {
			return nil, fmt.Errorf("rate limited after %d retries: %w", g.opts.MaxRetries, err)
		}

		g.logger.Warn("provider rate limited, backing off", "attempt", attempt+1, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
			if backoff > g.opts.MaxBackoff {
				backoff = g.opts.MaxBackoff
			}
		}
	}
}
