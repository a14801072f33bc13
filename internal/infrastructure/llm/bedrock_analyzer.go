package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go/auth/bearer"

	"housingRadar/internal/domain/repository"
)

// bedrockAnalyzer runs the fallback chain against the AWS Bedrock Converse
// API, authenticated with a bearer token rather than SigV4 credentials.
type bedrockAnalyzer struct {
	chainAnalyzer
	client    *bedrockruntime.Client
	maxTokens int32
	timeout   time.Duration
}

func newBedrockAnalyzer(ctx context.Context, cfg Config) (repository.AnalyzerRepository, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("bedrock bearer token is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("bedrock region is required (set LLM_REGION)")
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	sdkConfig, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	sdkConfig.BearerAuthTokenProvider = bearer.NewTokenCache(bearer.StaticTokenProvider{
		Token: bearer.Token{Value: cfg.APIKey},
	})
	sdkConfig.AuthSchemePreference = []string{"httpBearerAuth"}

	a := &bedrockAnalyzer{
		client:    bedrockruntime.NewFromConfig(sdkConfig),
		maxTokens: int32(maxTokens),
		timeout:   timeout,
	}

	chain, err := newFallbackChain(cfg, a.generate)
	if err != nil {
		return nil, err
	}
	a.chain = chain

	return a, nil
}

func (a *bedrockAnalyzer) generate(ctx context.Context, model, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.Converse(ctx, a.buildConverseInput(model, prompt))
	if err != nil {
		return "", fmt.Errorf("failed to invoke bedrock model: %w", err)
	}

	return parseConverseOutput(resp)
}

func (a *bedrockAnalyzer) buildConverseInput(model, prompt string) *bedrockruntime.ConverseInput {
	temperature := float32(0.3)
	topP := float32(0.9)

	return &bedrockruntime.ConverseInput{
		ModelId: aws.String(model),
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: prompt},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(a.maxTokens),
			Temperature: aws.Float32(temperature),
			TopP:        aws.Float32(topP),
		},
	}
}

func parseConverseOutput(resp *bedrockruntime.ConverseOutput) (string, error) {
	messageOutput, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("unexpected bedrock response output type: %T", resp.Output)
	}

	if len(messageOutput.Value.Content) == 0 {
		return "", fmt.Errorf("no content in bedrock response")
	}

	var builder strings.Builder
	for _, block := range messageOutput.Value.Content {
		textBlock, ok := block.(*types.ContentBlockMemberText)
		if !ok {
			continue
		}
		text := strings.TrimSpace(textBlock.Value)
		if text == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteByte('\n')
		}
		builder.WriteString(text)
	}

	out := strings.TrimSpace(builder.String())
	if out == "" {
		return "", fmt.Errorf("empty text in bedrock response")
	}
	return out, nil
}
