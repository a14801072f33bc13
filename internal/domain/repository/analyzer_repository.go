package repository

import (
	"context"

	"housingRadar/internal/domain/entity"
)

// AnalyzerRepository 提供新聞標題的 AI 分析功能
type AnalyzerRepository interface {
	// Analyze sends one headline (plus optional scraped article text) to the
	// model and returns the parsed analysis.
	Analyze(ctx context.Context, headline, content string) (*entity.Analysis, error)

	// Strategize sends the whole headline batch in one prompt and returns the
	// marketing-strategy table.
	Strategize(ctx context.Context, headlines []string) (*entity.StrategyTable, error)

	// IsEnabled reports whether a real model is configured.
	IsEnabled() bool
}
