package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// BedrockAPI abstracts the Bedrock Converse call for testing.
type BedrockAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockProvider implements Provider using the AWS Bedrock Converse API.
type BedrockProvider struct {
	api   BedrockAPI
	model string
}

// NewBedrockProvider creates a Bedrock provider using the standard AWS
// credential chain. Profile is optional.
func NewBedrockProvider(ctx context.Context, region, profile, model string) (*BedrockProvider, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewBedrockProviderWithAPI(bedrockruntime.NewFromConfig(awsCfg), model), nil
}

// NewBedrockProviderWithAPI creates a provider over a pre-configured API.
func NewBedrockProviderWithAPI(api BedrockAPI, model string) *BedrockProvider {
	return &BedrockProvider{api: api, model: model}
}

func (p *BedrockProvider) Name() string {
	return "bedrock"
}

func (p *BedrockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	var system []brtypes.SystemContentBlock
	var messages []brtypes.Message
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			system = append(system, &brtypes.SystemContentBlockMemberText{Value: msg.Content})
		case RoleUser, RoleAssistant:
			role := brtypes.ConversationRoleUser
			if msg.Role == RoleAssistant {
				role = brtypes.ConversationRoleAssistant
			}
			messages = append(messages, brtypes.Message{
				Role:    role,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: msg.Content}},
			})
		}
	}

	out, err := p.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:  aws.String(model),
		System:   system,
		Messages: messages,
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(int32(maxTokens)),
			Temperature: aws.Float32(float32(req.Temperature)),
		},
	})
	if err != nil {
		return nil, classifyBedrockError(err)
	}

	var content string
	if msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage); ok {
		for _, block := range msg.Value.Content {
			if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
				content += text.Value
			}
		}
	}

	resp := &CompletionResponse{
		Content:      content,
		Model:        model,
		FinishReason: string(out.StopReason),
		Truncated:    out.StopReason == brtypes.StopReasonMaxTokens,
	}
	if out.Usage != nil {
		resp.InputTokens = int(aws.ToInt32(out.Usage.InputTokens))
		resp.OutputTokens = int(aws.ToInt32(out.Usage.OutputTokens))
	}
	return resp, nil
}

func classifyBedrockError(err error) error {
	var throttle *brtypes.ThrottlingException
	var unavailable *brtypes.ServiceUnavailableException
	if errors.As(err, &throttle) || errors.As(err, &unavailable) {
		return fmt.Errorf("%w: bedrock: %v", ErrRateLimited, err)
	}
	return fmt.Errorf("bedrock converse: %w", err)
}
