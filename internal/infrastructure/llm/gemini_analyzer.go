package llm

import (
	"context"
	"fmt"
	"time"

	"housingRadar/internal/domain/repository"

	"google.golang.org/genai"
)

// geminiAnalyzer 使用 Google Gemini API 的分析實作。模型名稱清單就是
// 自動切換鏈：快的模型在前，失敗時換下一個相容模型。
type geminiAnalyzer struct {
	chainAnalyzer
	client    *genai.Client
	maxTokens int32
	timeout   time.Duration
}

func newGeminiAnalyzer(ctx context.Context, cfg Config) (repository.AnalyzerRepository, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	a := &geminiAnalyzer{
		client:    client,
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

func (a *geminiAnalyzer) generate(ctx context.Context, model, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		MaxOutputTokens: a.maxTokens,
		Temperature:     genai.Ptr[float32](0.3),
	})
	if err != nil {
		return "", fmt.Errorf("failed to call Gemini API: %w", err)
	}

	return resp.Text(), nil
}
