package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicProviderParsesResponse(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		fmt.Fprint(w, `{"content":[{"type":"text","text":"# Doc"}],"model":"claude-x","stop_reason":"end_turn","usage":{"input_tokens":12,"output_tokens":34}}`)
	}))
	defer srv.Close()

	p := NewAnthropicProvider("test-key", "claude-x", srv.URL)
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "# Doc", resp.Content)
	assert.Equal(t, 12, resp.InputTokens)
	assert.Equal(t, 34, resp.OutputTokens)
	assert.Contains(t, gotBody, `"system":"sys"`)
}

func TestAnthropicProviderRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)
	}))
	defer srv.Close()

	p := NewAnthropicProvider("k", "claude-x", srv.URL)
	_, err := p.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.True(t, IsRetryable(err))
}

func TestOllamaProviderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "boom")
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")
	_, err := p.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
	assert.False(t, IsRetryable(err))
}

func TestOllamaProviderParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		fmt.Fprint(w, `{"model":"llama3","message":{"role":"assistant","content":"partial"},"done_reason":"length","prompt_eval_count":7,"eval_count":9}`)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL+"/", "llama3")
	resp, err := p.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "partial", resp.Content)
	assert.Equal(t, 7, resp.InputTokens)
	assert.Equal(t, 9, resp.OutputTokens)
	assert.True(t, resp.Truncated)
}

func TestGoogleProviderParsesResponse(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		assert.Equal(t, "/gemini-pro:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.URL.Query().Get("key"))
		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"# A"},{"text":"B"}]},"finishReason":"MAX_TOKENS"}],"usageMetadata":{"promptTokenCount":5,"candidatesTokenCount":6}}`)
	}))
	defer srv.Close()

	p := NewGoogleProvider("g-key", "gemini-pro", srv.URL)
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "# AB", resp.Content)
	assert.Equal(t, 5, resp.InputTokens)
	assert.Equal(t, 6, resp.OutputTokens)
	assert.True(t, resp.Truncated)
	assert.Contains(t, gotBody, `"systemInstruction":{"parts":[{"text":"sys"}]}`)
}

func TestHitTokenLimit(t *testing.T) {
	for reason, want := range map[string]bool{
		"max_tokens": true,
		"MAX_TOKENS": true,
		"length":     true,
		"end_turn":   false,
		"STOP":       false,
		"":           false,
	} {
		assert.Equal(t, want, hitTokenLimit(reason), reason)
	}
}

type fakeBedrock struct {
	in  *bedrockruntime.ConverseInput
	out *bedrockruntime.ConverseOutput
	err error
}

func (f *fakeBedrock) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.in = in
	return f.out, f.err
}

func TestBedrockProviderComplete(t *testing.T) {
	api := &fakeBedrock{out: &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: "generated"}},
		}},
		StopReason: brtypes.StopReasonEndTurn,
		Usage: &brtypes.TokenUsage{
			InputTokens:  aws.Int32(100),
			OutputTokens: aws.Int32(40),
			TotalTokens:  aws.Int32(140),
		},
	}}
	p := NewBedrockProviderWithAPI(api, "anthropic.claude-3-haiku-20240307-v1:0")

	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages:  []Message{{Role: RoleSystem, Content: "be terse"}, {Role: RoleUser, Content: "document this"}},
		MaxTokens: 2000,
	})
	require.NoError(t, err)
	assert.Equal(t, "generated", resp.Content)
	assert.Equal(t, 100, resp.InputTokens)
	assert.Equal(t, 40, resp.OutputTokens)
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.False(t, resp.Truncated)

	require.NotNil(t, api.in)
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", aws.ToString(api.in.ModelId))
	assert.Len(t, api.in.System, 1)
	assert.Len(t, api.in.Messages, 1)
	assert.Equal(t, int32(2000), aws.ToInt32(api.in.InferenceConfig.MaxTokens))
}

func TestBedrockProviderThrottled(t *testing.T) {
	api := &fakeBedrock{err: &brtypes.ThrottlingException{Message: aws.String("too many requests")}}
	p := NewBedrockProviderWithAPI(api, "m")

	_, err := p.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	assert.ErrorIs(t, err, ErrRateLimited)

	api.err = errors.New("access denied")
	_, err = p.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	assert.NotErrorIs(t, err, ErrRateLimited)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", ErrRateLimited)))
	assert.True(t, IsRetryable(errors.New("API error: overloaded")))
	assert.False(t, IsRetryable(errors.New("invalid api key")))
}
