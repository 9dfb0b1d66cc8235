// Package llm talks to the text-generation services that write the
// documentation.
package llm

import (
	"context"
	"strings"
)

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest contains the parameters for an LLM completion request.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// CompletionResponse contains the result of an LLM completion request.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	// FinishReason is the provider's own stop reason, unmodified.
	FinishReason string
	// Truncated is set when generation stopped at the output token limit.
	Truncated bool
}

// hitTokenLimit recognises the stop reasons providers use for "ran out of
// output tokens": max_tokens (Anthropic, Bedrock), length (OpenAI,
// Ollama) and MAX_TOKENS (Gemini).
func hitTokenLimit(reason string) bool {
	switch strings.ToLower(reason) {
	case "max_tokens", "length":
		return true
	}
	return false
}

// splitSystem separates system messages, joined by blank lines, from the
// conversation.
func splitSystem(msgs []Message) (string, []Message) {
	var system []string
	var rest []Message
	for _, m := range msgs {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}
