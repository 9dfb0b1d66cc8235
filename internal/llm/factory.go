package llm

import (
	"context"
	"fmt"
	"os"
)

// Options selects and configures a provider.
type Options struct {
	Provider string
	Model    string
	// BaseURL overrides the endpoint of HTTP and OpenAI-compatible providers.
	BaseURL string
	// Region and Profile configure the bedrock provider.
	Region  string
	Profile string
	// RateLimitRPM wraps the provider in a limiter when positive.
	RateLimitRPM int
}

// APIKeyEnvVars maps provider names to the environment variable holding
// their API key. Providers absent from the map need no key.
var APIKeyEnvVars = map[string]string{
	"anthropic":  "ANTHROPIC_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
	"minimax":    "MINIMAX_API_KEY",
	"google":     "GOOGLE_API_KEY",
}

// NewProvider creates a new LLM provider based on opts.
// Supported providers: "anthropic", "openai", "openrouter", "minimax",
// "google", "ollama", "bedrock".
func NewProvider(ctx context.Context, opts Options) (Provider, error) {
	p, err := newProvider(ctx, opts)
	if err != nil {
		return nil, err
	}
	if opts.RateLimitRPM > 0 {
		p = Throttle(p, opts.RateLimitRPM)
	}
	return p, nil
}

func newProvider(ctx context.Context, opts Options) (Provider, error) {
	apiKey := ""
	if env, ok := APIKeyEnvVars[opts.Provider]; ok {
		apiKey = os.Getenv(env)
		if apiKey == "" {
			return nil, fmt.Errorf("%s environment variable is not set", env)
		}
	}

	switch opts.Provider {
	case "anthropic":
		return NewAnthropicProvider(apiKey, opts.Model, opts.BaseURL), nil

	case "openai":
		return NewOpenAICompatibleProvider("openai", apiKey, opts.BaseURL, opts.Model), nil

	case "openrouter":
		return NewOpenAICompatibleProvider("openrouter", apiKey, firstNonEmpty(opts.BaseURL, OpenRouterBaseURL), opts.Model), nil

	case "minimax":
		return NewOpenAICompatibleProvider("minimax", apiKey, firstNonEmpty(opts.BaseURL, MinimaxBaseURL), opts.Model), nil

	case "google":
		return NewGoogleProvider(apiKey, opts.Model, opts.BaseURL), nil

	case "ollama":
		host := firstNonEmpty(opts.BaseURL, os.Getenv("OLLAMA_HOST"), DefaultOllamaHost)
		return NewOllamaProvider(host, opts.Model), nil

	case "bedrock":
		p, err := NewBedrockProvider(ctx, opts.Region, opts.Profile, opts.Model)
		if err != nil {
			return nil, err
		}
		return p, nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", opts.Provider)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
