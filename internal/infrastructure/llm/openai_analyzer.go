package llm

import (
	"context"
	"fmt"
	"time"

	"housingRadar/internal/domain/repository"

	"github.com/sashabaranov/go-openai"
)

// openaiAnalyzer routes the same fallback chain through an OpenAI-compatible
// chat-completion endpoint. BaseURL makes it usable against self-hosted or
// proxy deployments.
type openaiAnalyzer struct {
	chainAnalyzer
	client    *openai.Client
	maxTokens int
	timeout   time.Duration
}

func newOpenAIAnalyzer(cfg Config) (repository.AnalyzerRepository, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	a := &openaiAnalyzer{
		client:    openai.NewClientWithConfig(clientCfg),
		maxTokens: maxTokens,
		timeout:   timeout,
	}

	chain, err := newFallbackChain(cfg, a.generate)
	if err != nil {
		return nil, err
	}
	a.chain = chain

	return a, nil
}

func (a *openaiAnalyzer) generate(ctx context.Context, model, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   a.maxTokens,
		Temperature: 0.3,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call chat completion API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in chat completion response")
	}

	return resp.Choices[0].Message.Content, nil
}
