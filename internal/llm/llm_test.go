package llm

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingProvider answers every request with a fixed response.
type countingProvider struct {
	calls atomic.Int32
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	p.calls.Add(1)
	return &CompletionResponse{Content: "ok", Model: req.Model}, nil
}

func clearAPIKeys(t *testing.T) {
	for _, env := range APIKeyEnvVars {
		t.Setenv(env, "")
	}
}

func TestNewProviderRequiresAPIKey(t *testing.T) {
	clearAPIKeys(t)
	for name, env := range APIKeyEnvVars {
		_, err := NewProvider(context.Background(), Options{Provider: name, Model: "m"})
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), env)
	}
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider(context.Background(), Options{Provider: "watsonx", Model: "m"})
	assert.ErrorContains(t, err, "unsupported provider")
}

func TestNewProviderNames(t *testing.T) {
	for _, env := range APIKeyEnvVars {
		t.Setenv(env, "test-key")
	}
	for _, name := range []string{"anthropic", "openai", "openrouter", "minimax", "google", "ollama"} {
		p, err := NewProvider(context.Background(), Options{Provider: name, Model: "m"})
		require.NoError(t, err, name)
		assert.Equal(t, name, p.Name())
	}
}

func TestNewProviderOllamaHost(t *testing.T) {
	clearAPIKeys(t)

	t.Setenv("OLLAMA_HOST", "")
	p, err := NewProvider(context.Background(), Options{Provider: "ollama", Model: "llama3"})
	require.NoError(t, err)
	require.IsType(t, &OllamaProvider{}, p)
	assert.Equal(t, DefaultOllamaHost, p.(*OllamaProvider).baseURL)

	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434/")
	p, err = NewProvider(context.Background(), Options{Provider: "ollama", Model: "llama3"})
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", p.(*OllamaProvider).baseURL)

	p, err = NewProvider(context.Background(), Options{Provider: "ollama", Model: "llama3", BaseURL: "http://override:1"})
	require.NoError(t, err)
	assert.Equal(t, "http://override:1", p.(*OllamaProvider).baseURL)
}

func TestNewProviderThrottles(t *testing.T) {
	p, err := NewProvider(context.Background(), Options{Provider: "ollama", Model: "llama3", RateLimitRPM: 30})
	require.NoError(t, err)
	require.IsType(t, &ThrottledProvider{}, p)
	assert.Equal(t, "ollama", p.Name())
}

func TestThrottleAllowsBurstThenWaits(t *testing.T) {
	inner := &countingProvider{}
	p := Throttle(inner, 2)
	req := CompletionRequest{Model: "m", Messages: []Message{{Role: RoleUser, Content: "hi"}}}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	for range 2 {
		resp, err := p.Complete(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Content)
	}

	// The third token is 30s away; the deadline ends the wait first.
	_, err := p.Complete(ctx, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "counting: waiting for rate limit")
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestEstimateCost(t *testing.T) {
	tests := []struct {
		model         string
		input, output int
		want          string
	}{
		{"claude-sonnet-4-5-20250929", 1_000_000, 1_000_000, "18"},
		{"anthropic.claude-3-haiku-20240307-v1:0", 1234, 0, "0.0003085"},
		{"us.anthropic.claude-3-5-haiku-20241022-v1:0", 1_000_000, 0, "0.8"},
		{"gpt-4o-mini", 0, 1_000_000, "0.6"},
		{"gemini-2.0-flash", 500_000, 500_000, "0.25"},
		{"unknown-model", 1000, 500, "0"},
	}
	for _, tt := range tests {
		got := EstimateCost(tt.model, tt.input, tt.output)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "%s: got %s, want %s", tt.model, got, tt.want)
	}
}

func TestKnownModel(t *testing.T) {
	assert.True(t, KnownModel("gpt-4o"))
	assert.True(t, KnownModel("eu.anthropic.claude-3-haiku-20240307-v1:0"))
	assert.False(t, KnownModel("us.unknown"))
	assert.False(t, KnownModel(""))
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"hi", 1},
		{"hello world!!", 3},
		{"a longer piece of text that has more characters", 11},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EstimateTokens(tt.text), tt.text)
	}
}

func TestSplitSystem(t *testing.T) {
	system, rest := splitSystem([]Message{
		{Role: RoleSystem, Content: "one"},
		{Role: RoleUser, Content: "question"},
		{Role: RoleSystem, Content: "two"},
		{Role: RoleAssistant, Content: "answer"},
	})
	assert.Equal(t, "one\n\ntwo", system)
	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "question"},
		{Role: RoleAssistant, Content: "answer"},
	}, rest)
}
