package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const (
	anthropicAPIURL  = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
)

// AnthropicProvider implements Provider using the Anthropic Messages API via direct HTTP.
type AnthropicProvider struct {
	apiKey string
	model  string
	url    string
	client *http.Client
}

// NewAnthropicProvider creates a new Anthropic provider. An empty url
// selects the public API endpoint.
func NewAnthropicProvider(apiKey, model, url string) *AnthropicProvider {
	if url == "" {
		url = anthropicAPIURL
	}
	return &AnthropicProvider{apiKey: apiKey, model: model, url: url, client: &http.Client{}}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	system, conversation := splitSystem(req.Messages)
	apiReq := anthropicRequest{
		Model:       firstNonEmpty(req.Model, p.model),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		System:      system,
	}
	if apiReq.MaxTokens == 0 {
		apiReq.MaxTokens = 4096
	}
	for _, m := range conversation {
		apiReq.Messages = append(apiReq.Messages, anthropicMessage{Role: string(m.Role), Content: m.Content})
	}

	header := http.Header{}
	header.Set("x-api-key", p.apiKey)
	header.Set("anthropic-version", anthropicVersion)

	var apiResp anthropicResponse
	if err := postJSON(ctx, p.client, "anthropic", p.url, header, apiReq, &apiResp); err != nil {
		return nil, err
	}
	if e := apiResp.Error; e != nil {
		if e.Type == "rate_limit_error" || e.Type == "overloaded_error" {
			return nil, fmt.Errorf("%w: anthropic API error (%s): %s", ErrRateLimited, e.Type, e.Message)
		}
		return nil, fmt.Errorf("anthropic API error (%s): %s", e.Type, e.Message)
	}

	var text strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return &CompletionResponse{
		Content:      text.String(),
		InputTokens:  apiResp.Usage.InputTokens,
		OutputTokens: apiResp.Usage.OutputTokens,
		Model:        apiResp.Model,
		FinishReason: apiResp.StopReason,
		Truncated:    hitTokenLimit(apiResp.StopReason),
	}, nil
}
