package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"housingRadar/internal/domain/entity"
	"housingRadar/internal/domain/repository"
)

// Config 是 LLM 分析功能的設定
type Config struct {
	Provider       string        // "gemini", "openai", "bedrock" or "noop" (empty defaults to "noop")
	APIKey         string        // LLM API key
	Models         []string      // fallback chain, tried in order
	MaxTokens      int           // max output tokens
	Timeout        time.Duration // timeout per API call
	MaxAttempts    int           // attempts per model before moving down the chain
	RetryDelay     time.Duration // base backoff delay, doubled per attempt
	Region         string        // bedrock region
	BaseURL        string        // endpoint override (OpenAI-compatible APIs, tests)
	MaxPermits     int           // pacing permits
	RefillInterval time.Duration // pacing refill interval
}

const (
	defaultMaxTokens   = 500
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 2
	defaultRetryDelay  = 2 * time.Second
	maxContentRunes    = 2000
)

// NewAnalyzerRepository 依照 Config 建立對應的 AnalyzerRepository
func NewAnalyzerRepository(ctx context.Context, cfg Config) (repository.AnalyzerRepository, error) {
	switch cfg.Provider {
	case "gemini":
		return newGeminiAnalyzer(ctx, cfg)
	case "openai":
		return newOpenAIAnalyzer(cfg)
	case "bedrock":
		return newBedrockAnalyzer(ctx, cfg)
	case "noop", "":
		return newNoopAnalyzer(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}

// generateFunc invokes one concrete model once.
type generateFunc func(ctx context.Context, model, prompt string) (string, error)

// fallbackChain tries each model name in order until one returns a non-empty
// answer, retrying each model with a doubling delay. Every call goes through
// the pacer first.
type fallbackChain struct {
	models      []string
	maxAttempts int
	retryDelay  time.Duration
	pacer       *pacer
	generate    generateFunc
}

func newFallbackChain(cfg Config, generate generateFunc) (*fallbackChain, error) {
	if len(cfg.Models) == 0 {
		return nil, fmt.Errorf("at least one model name is required")
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	return &fallbackChain{
		models:      cfg.Models,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		pacer:       newPacer(cfg.MaxPermits, cfg.RefillInterval),
		generate:    generate,
	}, nil
}

// run reports the text, the model that answered, and whether that model was
// a fallback rather than the chain head. When every model fails the error
// joins all per-model failures so the card can show the full diagnostic.
func (c *fallbackChain) run(ctx context.Context, prompt string) (text, model string, degraded bool, err error) {
	var errs []error

	for mi, m := range c.models {
		delay := c.retryDelay
		for attempt := 1; attempt <= c.maxAttempts; attempt++ {
			if attempt > 1 {
				select {
				case <-ctx.Done():
					return "", "", false, ctx.Err()
				case <-time.After(delay):
				}
				delay *= 2
			}

			if err := c.pacer.Wait(ctx); err != nil {
				return "", "", false, fmt.Errorf("pacer error: %w", err)
			}

			out, genErr := c.generate(ctx, m, prompt)
			if genErr != nil {
				errs = append(errs, fmt.Errorf("%s: %w", m, genErr))
				continue
			}
			out = strings.TrimSpace(out)
			if out == "" {
				errs = append(errs, fmt.Errorf("%s: empty response", m))
				continue
			}
			return out, m, mi > 0, nil
		}
	}

	return "", "", false, fmt.Errorf("all models failed: %w", errors.Join(errs...))
}

// chainAnalyzer implements AnalyzerRepository on top of a fallbackChain.
// Concrete providers embed it and supply their generate function.
type chainAnalyzer struct {
	chain *fallbackChain
}

func (a *chainAnalyzer) Analyze(ctx context.Context, headline, content string) (*entity.Analysis, error) {
	text, model, degraded, err := a.chain.run(ctx, buildAnalysisPrompt(headline, content))
	if err != nil {
		return nil, err
	}
	return entity.NewAnalysis(headline, text, model, degraded), nil
}

func (a *chainAnalyzer) Strategize(ctx context.Context, headlines []string) (*entity.StrategyTable, error) {
	if len(headlines) == 0 {
		return &entity.StrategyTable{}, nil
	}

	text, model, degraded, err := a.chain.run(ctx, buildStrategyPrompt(headlines))
	if err != nil {
		return nil, err
	}

	rows := entity.ParseStrategyRows(text, headlines)
	if len(rows) == 0 {
		return nil, fmt.Errorf("no strategy rows parsed from %s output", model)
	}

	return &entity.StrategyTable{Rows: rows, Model: model, Degraded: degraded}, nil
}

func (a *chainAnalyzer) IsEnabled() bool {
	return true
}

func buildAnalysisPrompt(headline, content string) string {
	var b strings.Builder
	b.WriteString("你是一位專業的台灣房地產分析師。請針對以下新聞標題進行分析：\n")
	fmt.Fprintf(&b, "新聞標題：「%s」\n", headline)
	if content != "" {
		fmt.Fprintf(&b, "\n報導內容節錄：\n%s\n", truncateRunes(content, maxContentRunes))
	}
	b.WriteString(`
請簡潔分析（各約100字）：
1. **【產業觀點】**：對市場的影響或趨勢。
2. **【受眾畫像】**：誰會對這則新聞最有感？`)
	return b.String()
}

func buildStrategyPrompt(headlines []string) string {
	var b strings.Builder
	b.WriteString("你是一位台灣房地產行銷總監。以下是今日的房市新聞標題清單：\n\n")
	for i, h := range headlines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, h)
	}
	b.WriteString(`
請針對每一則標題規劃行銷策略，依照編號逐條輸出，格式固定如下：
1. 【行銷切角】約50字的行銷切入點。【目標客群】約30字描述最適合鎖定的客群。
不要輸出編號與格式以外的文字。`)
	return b.String()
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
